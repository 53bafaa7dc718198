package services

import (
	"fmt"

	"catalog-service/internal/models"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateInvoicePDF renders an order and its priced basket using maroto
func GenerateInvoicePDF(order *models.Order, summary *models.BasketSummary) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	addInvoiceHeader(m, order)
	addInvoiceCustomer(m, order, summary)
	addInvoiceItems(m, summary)
	addInvoiceTotal(m, summary)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addInvoiceHeader(m core.Maroto, order *models.Order) {
	m.AddRow(20,
		col.New(6).Add(
			text.New("INVOICE", props.Text{
				Size:  20,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Order %s", order.UUID), props.Text{
				Size:  9,
				Align: align.Right,
			}),
			text.New(fmt.Sprintf("Account # %s", order.AccountNumber), props.Text{
				Size:  9,
				Top:   5,
				Align: align.Right,
			}),
			text.New(fmt.Sprintf("Status: %s / %s", order.OrderStatus, order.PaymentStatus), props.Text{
				Size:  9,
				Top:   10,
				Align: align.Right,
			}),
		),
	)
	m.AddRow(5, line.NewCol(12))
}

func addInvoiceCustomer(m core.Maroto, order *models.Order, summary *models.BasketSummary) {
	m.AddRow(22,
		col.New(6).Add(
			text.New("CUSTOMER:", props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
			text.New(order.UserFullName, props.Text{
				Size:  9,
				Top:   5,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("%s  %s", order.Phone, order.Email), props.Text{
				Size:  9,
				Top:   10,
				Align: align.Left,
			}),
		),
		col.New(6).Add(
			text.New("DELIVERY:", props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("%s, %s", summary.City, order.DeliveryType), props.Text{
				Size:  9,
				Top:   5,
				Align: align.Left,
			}),
			text.New(order.DeliveryAddress, props.Text{
				Size:  9,
				Top:   10,
				Align: align.Left,
			}),
		),
	)
	m.AddRow(5, line.NewCol(12))
}

func addInvoiceItems(m core.Maroto, summary *models.BasketSummary) {
	header := props.Text{Size: 10, Style: fontstyle.Bold}
	m.AddRow(8,
		col.New(6).Add(text.New("Item", withAlign(header, align.Left))),
		col.New(2).Add(text.New("Qty", withAlign(header, align.Center))),
		col.New(2).Add(text.New("Price", withAlign(header, align.Right))),
		col.New(2).Add(text.New("Total", withAlign(header, align.Right))),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 9}
	rows := append([]models.BasketLine{}, summary.Items...)
	for _, g := range summary.Gifts {
		g.Name = g.Name + " (gift)"
		rows = append(rows, g)
	}
	for _, item := range rows {
		m.AddRow(8,
			col.New(6).Add(text.New(item.Name, withAlign(cell, align.Left))),
			col.New(2).Add(text.New(fmt.Sprintf("%d", item.Count), withAlign(cell, align.Center))),
			col.New(2).Add(text.New(item.Price.StringFixed(2), withAlign(cell, align.Right))),
			col.New(2).Add(text.New(item.LineTotal.StringFixed(2), withAlign(cell, align.Right))),
		)
	}
	m.AddRow(2, line.NewCol(12))
}

func addInvoiceTotal(m core.Maroto, summary *models.BasketSummary) {
	m.AddRow(10,
		col.New(8),
		col.New(2).Add(text.New("TOTAL", props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
		})),
		col.New(2).Add(text.New(summary.Total.StringFixed(2), props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
		})),
	)
}

func withAlign(p props.Text, a align.Type) props.Text {
	p.Align = a
	return p
}
