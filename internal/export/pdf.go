package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// column widths on maroto's 12-unit grid, matching columns.
var pdfWidths = []int{1, 4, 1, 1, 1, 2, 2}

// GeneratePDF renders d as an A4 PDF and returns the raw bytes.
func GeneratePDF(d Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, d)
	addItemsTable(m, d)
	addTotal(m, d)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate quote pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, d Document) {
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(text.New("QUOTE", props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
			col.New(6).Add(text.New(fmt.Sprintf("Proposal #: %s", d.Proposal), props.Text{
				Size:  12,
				Style: fontstyle.Bold,
				Align: align.Right,
			})),
		),
	)

	value := props.Text{Size: 9, Align: align.Left}
	m.AddRows(
		row.New(7).Add(
			col.New(8).Add(text.New("Client: "+d.Client, value)),
			col.New(4).Add(text.New("Date: "+d.DateLabel(), props.Text{Size: 9, Align: align.Right})),
		),
	)
	m.AddRows(row.New(4))
}

func addItemsTable(m core.Maroto, d Document) {
	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}

	header := row.New(8)
	for i, title := range columns {
		header.Add(col.New(pdfWidths[i]).Add(text.New(title, headerText)).WithStyle(headerCell))
	}
	m.AddRows(header)

	altCell := &props.Cell{BackgroundColor: &props.Color{Red: 248, Green: 249, Blue: 250}}
	for i, it := range d.Items {
		body := row.New(7)
		for j, value := range d.cells(i+1, it) {
			style := props.Text{Size: 7, Align: align.Center}
			if j == 1 {
				style.Align = align.Left
			}
			c := col.New(pdfWidths[j]).Add(text.New(value, style))
			if i%2 == 1 {
				c = c.WithStyle(altCell)
			}
			body.Add(c)
		}
		m.AddRows(body)
	}
	m.AddRows(row.New(2))
}

func addTotal(m core.Maroto, d Document) {
	style := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	m.AddRows(
		row.New(8).Add(
			col.New(10).Add(text.New("TOTAL", style)),
			col.New(2).Add(text.New(d.amount(d.Total), style)),
		),
	)
}
