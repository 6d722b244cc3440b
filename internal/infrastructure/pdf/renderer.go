// Package pdf renders the printable representation of a submitted e-invoice:
// party details, line table, totals, and the FIRS footer carrying the IRN
// and the signed QR proof artifact.
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 96, Blue: 57}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ einvoice.InvoicePDFRenderer = (*Renderer)(nil)

// Renderer implements einvoice.InvoicePDFRenderer with Maroto v2.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render builds the A4 document. qrPNG may be nil when the proof artifact
// has not been generated yet; the footer then carries only the IRN.
func (r *Renderer) Render(inv *entity.CanonicalInvoice, irn string, qrPNG []byte) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("pdf: nil invoice")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("FIRS e-Invoice "+inv.InvoiceNumber, true).
		WithAuthor(inv.Supplier.LegalName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partyRow("SUPPLIER", inv.Supplier))
	m.AddRows(partyRow("CUSTOMER", inv.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, li := range inv.LineItems {
		m.AddRows(lineRow(li))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(firsFooterRows(irn, qrPNG)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(inv *entity.CanonicalInvoice) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(inv.Supplier.LegalName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("TIN: "+inv.Supplier.TIN, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FIRS ELECTRONIC INVOICE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(inv.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Issue date: "+inv.IssueDate.UTC().Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func partyRow(label string, p entity.Party) core.Row {
	contact := fmt.Sprintf("%s  |  TIN: %s", p.LegalName, p.TIN)
	address := fmt.Sprintf("%s, %s (%s)  |  %s  |  %s",
		nonEmpty(p.Address.Street, "—"), nonEmpty(p.Address.City, "—"),
		p.Address.StateCode, nonEmpty(p.Phone, "—"), nonEmpty(p.Email, "—"))
	return row.New(12).Add(
		col.New(12).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(contact, props.Text{Size: 8, Top: 5}),
			text.New(address, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	header := props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}
	right := header
	right.Align = align.Right
	return row.New(6).Add(
		col.New(1).Add(text.New("Qty", header)),
		col.New(5).Add(text.New("Description", header)),
		col.New(2).Add(text.New("HSN", header)),
		col.New(2).Add(text.New("Unit price", right)),
		col.New(2).Add(text.New("Total", right)),
	)
}

func lineRow(li entity.LineItem) core.Row {
	cell := props.Text{Size: 8, Top: 1}
	right := cell
	right.Align = align.Right
	return row.New(5).Add(
		col.New(1).Add(text.New(li.Quantity.String(), cell)),
		col.New(5).Add(text.New(li.Description, cell)),
		col.New(2).Add(text.New(li.HSNCode, cell)),
		col.New(2).Add(text.New(li.UnitPrice.StringFixed(2), right)),
		col.New(2).Add(text.New(li.Total().StringFixed(2), right)),
	)
}

func totalsRow(inv *entity.CanonicalInvoice) core.Row {
	label := props.Text{Size: 9, Align: align.Right, Color: colorGray}
	value := props.Text{Size: 9, Align: align.Right}
	total := props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary}
	return row.New(16).Add(
		col.New(8),
		col.New(2).Add(
			text.New("Net:", label),
			text.New("VAT:", propsWithTop(label, 5)),
			text.New("TOTAL "+inv.CurrencyCode+":", propsWithTop(label, 10)),
		),
		col.New(2).Add(
			text.New(inv.NetTotal().StringFixed(2), value),
			text.New(inv.TaxTotal().StringFixed(2), propsWithTop(value, 5)),
			text.New(inv.Total().StringFixed(2), propsWithTop(total, 10)),
		),
	)
}

func firsFooterRows(irn string, qrPNG []byte) []core.Row {
	rows := []core.Row{
		row.New(6).Add(
			col.New(12).Add(
				text.New("IRN: "+irn, props.Text{Size: 8, Style: fontstyle.Bold, Top: 1}),
			),
		),
	}
	if len(qrPNG) > 0 {
		rows = append(rows, row.New(32).Add(
			col.New(3).Add(
				image.NewFromBytes(qrPNG, extension.Png, props.Rect{Percent: 90}),
			),
			col.New(9).Add(
				text.New("Scan to verify this invoice against the FIRS e-invoicing platform.",
					props.Text{Size: 7, Color: colorGray, Top: 2}),
			),
		))
	}
	return rows
}

func propsWithTop(p props.Text, top float64) props.Text {
	p.Top = top
	return p
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
