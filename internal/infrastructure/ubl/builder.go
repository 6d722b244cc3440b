// Package ubl renders canonical invoices as UBL 2.1 Invoice documents and
// computes the canonicalized content digest the proof artifact binds to.
package ubl

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

const (
	nsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	ublVersion      = "2.1"
	customizationID = "urn:firs.gov.ng:einvoicing:ver1.0"

	invoiceTypeCodeStandard   = "380"
	invoiceTypeCodeCreditNote = "381"
	invoiceTypeCodeDebitNote  = "383"

	dateLayout = "2006-01-02"
)

// Builder renders UBL 2.1 XML. Output is deterministic: the same invoice
// yields byte-identical XML, element order fixed by the UBL schema.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders the invoice. The IRN, when already assigned, is carried in
// cbc:UUID so the document is self-describing for the authority.
func (b *Builder) Build(inv *entity.CanonicalInvoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("ubl: nil invoice")
	}
	if len(inv.LineItems) == 0 {
		return nil, fmt.Errorf("ubl: invoice %s has no lines", inv.InvoiceNumber)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", nsInvoice)
	root.CreateAttr("xmlns:cac", nsCAC)
	root.CreateAttr("xmlns:cbc", nsCBC)

	text(root, "cbc:UBLVersionID", ublVersion)
	text(root, "cbc:CustomizationID", customizationID)
	text(root, "cbc:ID", inv.InvoiceNumber)
	if inv.IRN != "" {
		text(root, "cbc:UUID", inv.IRN)
	}
	text(root, "cbc:IssueDate", inv.IssueDate.UTC().Format(dateLayout))
	text(root, "cbc:InvoiceTypeCode", typeCode(inv.InvoiceType))
	if inv.Notes != "" {
		text(root, "cbc:Note", inv.Notes)
	}
	text(root, "cbc:DocumentCurrencyCode", inv.CurrencyCode)

	if inv.AmendsInvoiceNumber != "" {
		ref := root.CreateElement("cac:BillingReference")
		docRef := ref.CreateElement("cac:InvoiceDocumentReference")
		text(docRef, "cbc:ID", inv.AmendsInvoiceNumber)
	}

	b.party(root, "cac:AccountingSupplierParty", inv.Supplier)
	b.party(root, "cac:AccountingCustomerParty", inv.Customer)

	if inv.Payment.AccountNumber != "" || inv.Payment.Terms != "" {
		pm := root.CreateElement("cac:PaymentMeans")
		if inv.Payment.Terms != "" {
			text(pm, "cbc:InstructionNote", inv.Payment.Terms)
		}
		if inv.Payment.AccountNumber != "" {
			acct := pm.CreateElement("cac:PayeeFinancialAccount")
			text(acct, "cbc:ID", inv.Payment.AccountNumber)
			if inv.Payment.AccountName != "" {
				text(acct, "cbc:Name", inv.Payment.AccountName)
			}
			if inv.Payment.BankName != "" {
				branch := acct.CreateElement("cac:FinancialInstitutionBranch")
				text(branch, "cbc:Name", inv.Payment.BankName)
			}
		}
	}

	taxTotal := root.CreateElement("cac:TaxTotal")
	amount(taxTotal, "cbc:TaxAmount", inv.TaxTotal().StringFixed(2), inv.CurrencyCode)

	monetary := root.CreateElement("cac:LegalMonetaryTotal")
	amount(monetary, "cbc:LineExtensionAmount", inv.NetTotal().StringFixed(2), inv.CurrencyCode)
	amount(monetary, "cbc:TaxExclusiveAmount", inv.NetTotal().StringFixed(2), inv.CurrencyCode)
	amount(monetary, "cbc:TaxInclusiveAmount", inv.Total().StringFixed(2), inv.CurrencyCode)
	amount(monetary, "cbc:PayableAmount", inv.Total().StringFixed(2), inv.CurrencyCode)

	for i, li := range inv.LineItems {
		b.line(root, i+1, li, inv.CurrencyCode)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func (b *Builder) party(parent *etree.Element, tag string, p entity.Party) {
	wrapper := parent.CreateElement(tag)
	party := wrapper.CreateElement("cac:Party")

	id := party.CreateElement("cac:PartyIdentification")
	tin := id.CreateElement("cbc:ID")
	tin.CreateAttr("schemeID", "TIN")
	tin.SetText(p.TIN)

	name := party.CreateElement("cac:PartyName")
	text(name, "cbc:Name", p.LegalName)

	addr := party.CreateElement("cac:PostalAddress")
	if p.Address.Street != "" {
		text(addr, "cbc:StreetName", p.Address.Street)
	}
	if p.Address.City != "" {
		text(addr, "cbc:CityName", p.Address.City)
	}
	if p.Address.PostalCode != "" {
		text(addr, "cbc:PostalZone", p.Address.PostalCode)
	}
	if p.Address.StateCode != "" {
		text(addr, "cbc:CountrySubentityCode", p.Address.StateCode)
	}
	country := addr.CreateElement("cac:Country")
	text(country, "cbc:IdentificationCode", p.Address.Country)

	if p.VATRegistered {
		scheme := party.CreateElement("cac:PartyTaxScheme")
		text(scheme, "cbc:CompanyID", p.TIN)
		tax := scheme.CreateElement("cac:TaxScheme")
		text(tax, "cbc:ID", "VAT")
	}

	if p.Email != "" || p.Phone != "" {
		contact := party.CreateElement("cac:Contact")
		if p.Phone != "" {
			text(contact, "cbc:Telephone", p.Phone)
		}
		if p.Email != "" {
			text(contact, "cbc:ElectronicMail", p.Email)
		}
	}
}

func (b *Builder) line(parent *etree.Element, n int, li entity.LineItem, currency string) {
	el := parent.CreateElement("cac:InvoiceLine")
	text(el, "cbc:ID", fmt.Sprintf("%d", n))

	qty := el.CreateElement("cbc:InvoicedQuantity")
	qty.CreateAttr("unitCode", li.UnitCode)
	qty.SetText(li.Quantity.String())

	amount(el, "cbc:LineExtensionAmount", li.NetAmount().StringFixed(2), currency)

	taxTotal := el.CreateElement("cac:TaxTotal")
	amount(taxTotal, "cbc:TaxAmount", li.TaxAmount().StringFixed(2), currency)

	item := el.CreateElement("cac:Item")
	text(item, "cbc:Description", li.Description)
	cls := item.CreateElement("cac:CommodityClassification")
	code := cls.CreateElement("cbc:ItemClassificationCode")
	code.CreateAttr("listID", "HS")
	code.SetText(li.HSNCode)
	category := item.CreateElement("cac:ClassifiedTaxCategory")
	text(category, "cbc:Percent", li.TaxRate.String())
	scheme := category.CreateElement("cac:TaxScheme")
	text(scheme, "cbc:ID", "VAT")

	price := el.CreateElement("cac:Price")
	amount(price, "cbc:PriceAmount", li.UnitPrice.StringFixed(2), currency)
}

func text(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}

func amount(parent *etree.Element, tag, value, currency string) {
	el := parent.CreateElement(tag)
	el.CreateAttr("currencyID", currency)
	el.SetText(value)
}

func typeCode(t entity.InvoiceType) string {
	switch t {
	case entity.InvoiceTypeCreditNote:
		return invoiceTypeCodeCreditNote
	case entity.InvoiceTypeDebitNote:
		return invoiceTypeCodeDebitNote
	default:
		return invoiceTypeCodeStandard
	}
}
