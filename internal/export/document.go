// Package export turns a finished quote into CSV, XLSX and PDF documents.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/ledger"
	"github.com/Simplici0/printquote/internal/money"
	"github.com/Simplici0/printquote/internal/validation"
)

// ErrNoItems is returned when a document is requested for an empty quote.
var ErrNoItems = errors.New("quote has no line items")

// DateLayout is how the quote date is printed.
const DateLayout = "02/01/2006"

var columns = []string{"#", "Description", "Width (m)", "Height (m)", "Qty", "Unit price", "Total"}

// Document is a finalized quote ready for rendering.
type Document struct {
	Client   string
	Proposal string
	Date     time.Time
	Currency string
	Items    []ledger.LineItem
	Total    decimal.Decimal
}

// NewDocument validates the header fields and freezes snap into a Document.
// proposal is the raw proposal number; it is combined with the year of date.
func NewDocument(client, proposal string, date time.Time, snap ledger.Snapshot) (Document, error) {
	client = strings.ToUpper(strings.TrimSpace(client))
	if client == "" {
		return Document{}, validation.New("client", validation.Required, "client name is required")
	}

	number, err := ProposalNumber(proposal, date.Year())
	if err != nil {
		return Document{}, err
	}

	if len(snap.Items) == 0 {
		return Document{}, ErrNoItems
	}

	return Document{
		Client:   client,
		Proposal: number,
		Date:     date,
		Currency: money.DefaultSymbol,
		Items:    append([]ledger.LineItem(nil), snap.Items...),
		Total:    snap.Total,
	}, nil
}

// ProposalNumber formats a proposal as NN-YYYY. Numeric input is zero-padded to two digits;
// other input is left-padded with zeros to the same width.
func ProposalNumber(raw string, year int) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", validation.New("proposal", validation.Required, "proposal number is required")
	}

	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return fmt.Sprintf("%02d-%d", n, year), nil
	}
	if len(s) < 2 {
		s = strings.Repeat("0", 2-len(s)) + s
	}
	return fmt.Sprintf("%s-%d", s, year), nil
}

// DateLabel returns the document date as printed.
func (d Document) DateLabel() string {
	return d.Date.Format(DateLayout)
}

// FileName returns the suggested file name for the given extension.
func (d Document) FileName(ext string) string {
	client := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_").Replace(d.Client)
	return fmt.Sprintf("quote_%s_%s.%s", client, d.Proposal, strings.TrimPrefix(ext, "."))
}

func (d Document) amount(v decimal.Decimal) string {
	return money.Format(d.Currency, v)
}

// cells renders one line item with its 1-based position.
func (d Document) cells(position int, it ledger.LineItem) []string {
	return []string{
		strconv.Itoa(position),
		it.Description,
		it.Width.String(),
		it.Height.String(),
		strconv.Itoa(it.Quantity),
		d.amount(it.UnitPrice),
		d.amount(it.LineTotal),
	}
}
