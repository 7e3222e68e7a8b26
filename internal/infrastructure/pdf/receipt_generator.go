// Package pdf genera el recibo de venta imprimible.
//
// Layout (A4):
//
//	┌──────────────────────────────────────────────┐
//	│  Tienda                 │  N° recibo + fecha │
//	│  ──────────────────────────────────────────  │
//	│  Cant | Producto | Talla | P.Unit | Subtotal │
//	│  ──────────────────────────────────────────  │
//	│  TOTAL / reembolsado / método de pago         │
//	└──────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/sales"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

var _ sales.ReceiptRenderer = (*ReceiptGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 30, Green: 30, Blue: 30}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRefund  = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ReceiptGenerator implementa sales.ReceiptRenderer usando Maroto v2.
type ReceiptGenerator struct{}

// NewReceiptGenerator construye el generador.
func NewReceiptGenerator() *ReceiptGenerator { return &ReceiptGenerator{} }

// RenderReceipt genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) RenderReceipt(_ context.Context, sale *entity.Sale, store *entity.Store) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Receipt "+sale.ReceiptNumber(), true).
		WithAuthor(store.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sale, store))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(sale.Items)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(sale))
	m.AddRows(line.NewRow(3))
	m.AddRows(row.New(30).Add(
		col.New(4).Add(code.NewBar(sale.ReceiptNumber(), props.Barcode{Percent: 90})),
		col.New(8),
	))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(sale *entity.Sale, store *entity.Store) core.Row {
	status := "VALID"
	if sale.IsRefunded() {
		status = "REFUNDED"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(store.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Store: "+store.ID, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(sale.ReceiptNumber(), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1}),
			text.New(sale.SaleDate.Format("2006-01-02"), props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
			text.New(status, props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Qty", 1, align.Center),
		h("Product", 5, align.Left),
		h("Size", 1, align.Center),
		h("Unit", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

// itemRows una fila por línea; las líneas reembolsadas por completo quedan con cantidad 0.
func itemRows(items []*entity.SaleItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		desc := it.ProductNumber + " " + it.ProductName + " / " + it.Color
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(desc, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(it.Size, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatMoney(it.DiscountedPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(formatMoney(it.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func totalsRow(sale *entity.Sale) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, c *props.Color) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Color: c})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("TOTAL:"),
			label("Refunded:"),
			label("Payment:"),
		),
		col.New(3).Add(
			value(formatMoney(sale.TotalAmount), colorPrimary),
			value(formatMoney(sale.RefundedAmount), colorRefund),
			value(nonEmpty(sale.PaymentMethod, entity.DefaultPaymentMethod), colorGray),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney wons sin decimales con separador de miles: 1234500 -> "1,234,500".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(0)
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
