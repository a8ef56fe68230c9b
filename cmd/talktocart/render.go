package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/http/dto"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	totalStyle  = lipgloss.NewStyle().Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderCart(c cart.Cart) string {
	if c.IsEmpty() {
		return mutedStyle.Render("Your cart is empty.")
	}
	t := newTable("Item", "Qty")
	for _, l := range c.Lines() {
		t.Row(l.Item, strconv.Itoa(l.Quantity))
	}
	return t.Render()
}

func printCart(w io.Writer, c cart.Cart) error {
	_, err := fmt.Fprintln(w, renderCart(c))
	return err
}

func printCommand(w io.Writer, resp dto.CommandResponse) error {
	var b strings.Builder

	if resp.Message != "" {
		b.WriteString(noticeStyle.Render(resp.Message))
		b.WriteString("\n")
	}

	switch resp.Kind {
	case "invoice":
		if resp.Invoice != nil {
			b.WriteString(renderInvoice(*resp.Invoice))
			b.WriteString("\n")
		}
	case "style":
		b.WriteString(mutedStyle.Render("style changes: " + string(resp.CSSChanges)))
		b.WriteString("\n")
	default:
		b.WriteString(renderCart(resp.Cart))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderInvoice(doc invoice.Document) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(doc.Title))
	b.WriteString("\n")
	if doc.Number != "" {
		b.WriteString("Invoice #" + doc.Number + "\n")
	}
	if doc.Customer != "" {
		b.WriteString("Customer: " + doc.Customer + "\n")
	}

	t := newTable(doc.Columns...)
	for _, row := range doc.Rows {
		t.Row(row...)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	for _, total := range doc.Totals {
		b.WriteString(totalStyle.Render(fmt.Sprintf("%-14s %s", total.Label+":", total.Amount)))
		b.WriteString("\n")
	}
	return b.String()
}

func printInvoice(w io.Writer, doc invoice.Document) error {
	_, err := io.WriteString(w, renderInvoice(doc))
	return err
}

func printCatalog(w io.Writer, items []catalog.Entry) error {
	t := newTable("Item", "Price")
	for _, e := range items {
		t.Row(e.ID, invoice.Money(e.UnitPrice))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
