package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData is what a receipt PDF renders: the purchase reference, the
// billed customer, and the ordered units.
type ReceiptData struct {
	PONumber  uint64
	Username  string
	Amount    string
	Currency  string
	OrderDate string
	BillTo    string
	Items     []ReceiptItem
}

type ReceiptItem struct {
	Name      string
	Quantity  int
	UnitPrice string
}

// ReceiptRenderer produces the receipt attachment. Rendering is
// best-effort; callers drop the attachment on failure, never the email.
type ReceiptRenderer interface {
	Render(data ReceiptData) ([]byte, error)
}

type marotoRenderer struct{}

func NewReceiptRenderer() ReceiptRenderer {
	return marotoRenderer{}
}

func (marotoRenderer) Render(data ReceiptData) ([]byte, error) {
	m := maroto.New()

	m.AddRow(14,
		text.NewCol(8, "Receipt", props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, fmt.Sprintf("Order #%d", data.PONumber), props.Text{Size: 12, Align: align.Right}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold}),
			text.New(data.BillTo, props.Text{Top: 4}),
		),
		col.New(6).Add(
			text.New("Order date: "+data.OrderDate, props.Text{Align: align.Right}),
			text.New("Account: "+data.Username, props.Text{Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold}),
		text.NewCol(3, "Qty", props.Text{Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(3, "Unit price", props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)
	for _, it := range data.Items {
		m.AddRows(row.New(6).Add(
			text.NewCol(6, it.Name),
			text.NewCol(3, fmt.Sprintf("%d", it.Quantity), props.Text{Align: align.Right}),
			text.NewCol(3, it.UnitPrice, props.Text{Align: align.Right}),
		))
	}

	m.AddRow(12,
		text.NewCol(9, "Total", props.Text{Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(3, data.Amount+" "+data.Currency, props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
