package firs

import (
	"errors"
	"fmt"

	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
	pkgfirs "github.com/zulaiy/zutax-api/pkg/firs"
)

// ValidateInvoice checks a canonical invoice against the FIRS field rules
// before reference assignment: party TINs, invoice number format, line item
// sanity, and supported invoice type. All failures are joined so the caller
// can surface every problem at once.
func ValidateInvoice(inv *entity.CanonicalInvoice) error {
	if inv == nil {
		return fmt.Errorf("%w: nil invoice", domain.ErrValidation)
	}
	var errs []error

	if ok, reason := pkgfirs.ValidateInvoiceNumber(inv.InvoiceNumber); !ok {
		errs = append(errs, fmt.Errorf("invoice number: %s", reason))
	}
	if inv.InvoiceType != entity.InvoiceTypeStandard {
		errs = append(errs, fmt.Errorf("invoice type %q is not accepted by the submission pipeline", inv.InvoiceType))
	}
	if inv.IssueDate.IsZero() {
		errs = append(errs, errors.New("issue date is required"))
	}

	if ok, reason := pkgfirs.ValidateTIN(inv.Supplier.TIN); !ok {
		errs = append(errs, fmt.Errorf("supplier TIN: %s", reason))
	}
	if ok, reason := pkgfirs.ValidateTIN(inv.Customer.TIN); !ok {
		errs = append(errs, fmt.Errorf("customer TIN: %s", reason))
	}

	if len(inv.LineItems) == 0 {
		errs = append(errs, errors.New("invoice must have at least one line item"))
	}
	for i, li := range inv.LineItems {
		if li.Quantity.Sign() <= 0 {
			errs = append(errs, fmt.Errorf("line %d: quantity must be positive", i+1))
		}
		if li.UnitPrice.Sign() < 0 {
			errs = append(errs, fmt.Errorf("line %d: unit price must not be negative", i+1))
		}
		if li.TaxRate.Sign() < 0 || li.TaxRate.GreaterThan(oneHundredRate) {
			errs = append(errs, fmt.Errorf("line %d: tax rate must be between 0 and 100", i+1))
		}
		if ok, reason := pkgfirs.ValidateHSNCode(li.HSNCode); !ok {
			errs = append(errs, fmt.Errorf("line %d: %s", i+1, reason))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{domain.ErrValidation}, errs...)...)
	}
	return nil
}
