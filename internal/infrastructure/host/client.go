// Package host reads invoices from the host business-record system's API.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/pkg/config"
)

const maxResponseBytes = 4 << 20

var _ einvoice.HostInvoiceSource = (*Client)(nil)

// Client implements einvoice.HostInvoiceSource over the host's read API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.HostConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wireInvoice is the host API's invoice document.
type wireInvoice struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	Finalized     bool       `json:"finalized"`
	IssueDate     time.Time  `json:"issue_date"`
	Supplier      wireParty  `json:"supplier"`
	Customer      wireParty  `json:"customer"`
	CurrencyCode  string     `json:"currency_code"`
	PaymentTerms  string     `json:"payment_terms"`
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	AccountName   string     `json:"account_name"`
	Notes         string     `json:"notes"`
	Lines         []wireLine `json:"lines"`
}

type wireParty struct {
	TIN           string `json:"tin"`
	LegalName     string `json:"legal_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	VATRegistered bool   `json:"vat_registered"`
}

type wireLine struct {
	Description  string           `json:"description"`
	ItemCode     string           `json:"item_code"`
	ItemGroup    string           `json:"item_group"`
	HSNCode      string           `json:"hsn_code"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitCode     string           `json:"unit_code"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	DiscountRate decimal.Decimal  `json:"discount_rate"`
}

// FetchInvoice loads one invoice by its host-side ID.
func (c *Client) FetchInvoice(ctx context.Context, hostInvoiceID string) (*einvoice.HostInvoice, error) {
	endpoint := c.baseURL + "/api/v1/invoices/" + url.PathEscape(hostInvoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch host invoice: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read host response: %v", domain.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: host invoice %s", domain.ErrNotFound, hostInvoiceID)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: host returned %d", domain.ErrTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("host returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var w wireInvoice
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode host invoice: %w", err)
	}
	return w.toHostInvoice(), nil
}

func (w *wireInvoice) toHostInvoice() *einvoice.HostInvoice {
	inv := &einvoice.HostInvoice{
		ID:            w.ID,
		InvoiceNumber: w.InvoiceNumber,
		Finalized:     w.Finalized,
		IssueDate:     w.IssueDate,
		Supplier:      toHostParty(w.Supplier),
		Customer:      toHostParty(w.Customer),
		CurrencyCode:  w.CurrencyCode,
		PaymentTerms:  w.PaymentTerms,
		BankName:      w.BankName,
		AccountNumber: w.AccountNumber,
		AccountName:   w.AccountName,
		Notes:         w.Notes,
	}
	for _, l := range w.Lines {
		inv.Lines = append(inv.Lines, einvoice.HostLine{
			Description:  l.Description,
			ItemCode:     l.ItemCode,
			ItemGroup:    l.ItemGroup,
			HSNCode:      l.HSNCode,
			Quantity:     l.Quantity,
			UnitCode:     l.UnitCode,
			UnitPrice:    l.UnitPrice,
			TaxRate:      l.TaxRate,
			DiscountRate: l.DiscountRate,
		})
	}
	return inv
}

func toHostParty(p wireParty) einvoice.HostParty {
	return einvoice.HostParty{
		TIN:           p.TIN,
		LegalName:     p.LegalName,
		Email:         p.Email,
		Phone:         p.Phone,
		Street:        p.Street,
		City:          p.City,
		State:         p.State,
		PostalCode:    p.PostalCode,
		Country:       p.Country,
		VATRegistered: p.VATRegistered,
	}
}
