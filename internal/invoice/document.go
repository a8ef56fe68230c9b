package invoice

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

const Title = "TalkToCart Invoice"

var Columns = []string{"Item", "Qty", "Unit Price", "Total"}

type Meta struct {
	Number   string
	Customer string
	IssuedAt time.Time
}

type Total struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Document is the presentation form of an Invoice. Every amount is already
// formatted to two decimals; renderers print it as is.
type Document struct {
	Title    string     `json:"title"`
	Number   string     `json:"number"`
	Customer string     `json:"customer,omitempty"`
	IssuedAt time.Time  `json:"issuedAt"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	Totals   []Total    `json:"totals"`
}

func NewDocument(inv Invoice, meta Meta) Document {
	doc := Document{
		Title:    Title,
		Number:   meta.Number,
		Customer: meta.Customer,
		IssuedAt: meta.IssuedAt.UTC(),
		Columns:  append([]string(nil), Columns...),
		Rows:     make([][]string, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		doc.Rows = append(doc.Rows, []string{
			strings.ToUpper(l.ID),
			strconv.Itoa(l.Quantity),
			Money(l.UnitPrice),
			Money(l.LineTotal),
		})
	}
	doc.Totals = []Total{
		{Label: "Subtotal", Amount: Money(inv.Subtotal)},
		{Label: TaxLabel(), Amount: Money(inv.TaxAmount)},
		{Label: "Grand Total", Amount: Money(inv.GrandTotal)},
	}
	return doc
}

// Money formats an amount with the currency symbol and exactly two decimals.
func Money(v float64) string {
	return CurrencySymbol + strconv.FormatFloat(v, 'f', 2, 64)
}

func TaxLabel() string {
	return fmt.Sprintf("Tax (%d%%)", TaxPercent)
}

// WriteText renders the document as an aligned plain-text invoice.
func (d Document) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", d.Title)
	if d.Number != "" {
		fmt.Fprintf(tw, "Invoice #%s\n", d.Number)
	}
	if d.Customer != "" {
		fmt.Fprintf(tw, "Customer: %s\n", d.Customer)
	}
	if !d.IssuedAt.IsZero() {
		fmt.Fprintf(tw, "Date: %s\n", d.IssuedAt.Format("2006-01-02"))
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "%s\t\n", strings.Join(d.Columns, "\t"))
	for _, row := range d.Rows {
		fmt.Fprintf(tw, "%s\t\n", strings.Join(row, "\t"))
	}
	fmt.Fprintln(tw, "\t\t\t\t")
	for _, t := range d.Totals {
		fmt.Fprintf(tw, "\t\t%s\t%s\t\n", t.Label, t.Amount)
	}
	return tw.Flush()
}
