package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/catalog"
	"github.com/Simplici0/printquote/internal/export"
	"github.com/Simplici0/printquote/internal/ledger"
	"github.com/Simplici0/printquote/internal/money"
	"github.com/Simplici0/printquote/internal/pricing"
)

type calcView struct {
	Product      string              `json:"product,omitempty"`
	Mode         pricing.Mode        `json:"pricing_mode"`
	Quantity     int                 `json:"quantity"`
	UnitPrice    decimal.Decimal     `json:"unit_price"`
	Source       pricing.PriceSource `json:"price_source"`
	Width        string              `json:"width"`
	Height       string              `json:"height"`
	Area         decimal.NullDecimal `json:"area"`
	Base         decimal.Decimal     `json:"base"`
	Surcharge    decimal.Decimal     `json:"surcharge"`
	Addon        string              `json:"addon"`
	Total        decimal.Decimal     `json:"total"`
	TotalDisplay string              `json:"total_display"`
}

type itemView struct {
	ID           uuid.UUID       `json:"id"`
	Position     int             `json:"position"`
	Description  string          `json:"description"`
	Width        string          `json:"width"`
	Height       string          `json:"height"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
	TotalDisplay string          `json:"line_total_display"`
}

type quoteView struct {
	Items        []itemView      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

func (s *server) itemView(position int, it ledger.LineItem) itemView {
	return itemView{
		ID:           it.ID,
		Position:     position,
		Description:  it.Description,
		Width:        it.Width.String(),
		Height:       it.Height.String(),
		Quantity:     it.Quantity,
		UnitPrice:    it.UnitPrice,
		LineTotal:    it.LineTotal,
		TotalDisplay: money.Format(s.cfg.CurrencySymbol, it.LineTotal),
	}
}

// calculate prices the line described by the form. An unknown product name falls
// back to a manual line; blank dimensions take the product's defaults.
func (s *server) calculate(r *http.Request) (string, pricing.Result, error) {
	req := pricing.Request{
		Quantity:  r.FormValue("quantity"),
		Price:     r.FormValue("price"),
		Width:     r.FormValue("width"),
		Height:    r.FormValue("height"),
		Addon:     pricing.ParseAddon(r.FormValue("addon")),
		AddonRate: r.FormValue("addon_rate"),
	}
	if mode, err := pricing.ParseMode(r.FormValue("pricing_mode")); err == nil {
		req.Mode = mode
	}

	name := strings.TrimSpace(r.FormValue("product"))
	if name == "" {
		return "", s.engine.Compute(nil, req), nil
	}

	p, err := s.catalog.Get(name)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return "", s.engine.Compute(nil, req), nil
	}
	if err != nil {
		return "", pricing.Result{}, err
	}

	if strings.TrimSpace(req.Width) == "" && p.DefaultWidth.Known() {
		req.Width = p.DefaultWidth.Meters().String() + "m"
	}
	if strings.TrimSpace(req.Height) == "" && p.DefaultHeight.Known() {
		req.Height = p.DefaultHeight.Meters().String() + "m"
	}
	return p.Name, s.engine.Compute(p.Rule, req), nil
}

func (s *server) handleQuoteCalc(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form")
		return
	}

	product, res, err := s.calculate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, calcView{
		Product:      product,
		Mode:         res.Mode,
		Quantity:     res.Quantity,
		UnitPrice:    res.UnitPrice,
		Source:       res.Source,
		Width:        res.Width.String(),
		Height:       res.Height.String(),
		Area:         res.Area,
		Base:         res.Base,
		Surcharge:    res.Surcharge,
		Addon:        res.Addon.String(),
		Total:        res.Total,
		TotalDisplay: money.Format(s.cfg.CurrencySymbol, res.Total),
	})
}

func (s *server) handleQuoteItemAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form")
		return
	}

	product, res, err := s.calculate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	description := r.FormValue("description")
	if strings.TrimSpace(description) == "" {
		description = product
	}

	var override decimal.NullDecimal
	if total, ok := money.Parse(r.FormValue("total")); ok {
		override = decimal.NewNullDecimal(total)
	}

	item, err := ledger.NewItem(description, res, override)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	position := s.quote.Add(item)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, s.itemView(position, item))
}

func (s *server) handleQuoteItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.quote.Snapshot()
	s.mu.Unlock()

	view := quoteView{
		Items:        make([]itemView, 0, len(snap.Items)),
		Total:        snap.Total,
		TotalDisplay: money.Format(s.cfg.CurrencySymbol, snap.Total),
	}
	for i, it := range snap.Items {
		view.Items = append(view.Items, s.itemView(i+1, it))
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleQuoteClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.quote.Clear()
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func itemIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func positionParam(r *http.Request) (int, bool) {
	pos, err := strconv.Atoi(chi.URLParam(r, "pos"))
	if err != nil {
		return 0, false
	}
	return pos, true
}

func (s *server) handleQuoteItemRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(r)
	if !ok {
		badRequest(w, "invalid item id")
		return
	}

	s.mu.Lock()
	err := s.quote.Remove(id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleQuoteItemEdit removes the item and returns it so the form can be refilled.
func (s *server) handleQuoteItemEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(r)
	if !ok {
		badRequest(w, "invalid item id")
		return
	}

	s.mu.Lock()
	position, _ := s.quote.Position(id)
	item, err := s.quote.Take(id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.itemView(position, item))
}

func (s *server) handleQuotePositionRemove(w http.ResponseWriter, r *http.Request) {
	pos, ok := positionParam(r)
	if !ok {
		badRequest(w, "invalid position")
		return
	}

	s.mu.Lock()
	err := s.quote.RemoveAt(pos)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleQuotePositionEdit(w http.ResponseWriter, r *http.Request) {
	pos, ok := positionParam(r)
	if !ok {
		badRequest(w, "invalid position")
		return
	}

	s.mu.Lock()
	item, err := s.quote.TakeAt(pos)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.itemView(pos, item))
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.quote.Snapshot()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := export.WriteText(w, snap, s.cfg.CurrencySymbol); err != nil {
		log.Printf("write quote summary: %v", err)
	}
}

// handleQuoteExport renders the current quote, stores it under the export directory
// and returns it. The ledger is only read.
func (s *server) handleQuoteExport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form")
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	s.mu.Lock()
	snap := s.quote.Snapshot()
	s.mu.Unlock()

	doc, err := export.NewDocument(r.FormValue("client"), r.FormValue("proposal"), s.now(), snap)
	if err != nil {
		writeError(w, err)
		return
	}
	doc.Currency = s.cfg.CurrencySymbol

	data, err := export.Render(doc, format, s.cfg.TemplatePath)
	if err != nil {
		writeError(w, fmt.Errorf("render %s export: %w", format, err))
		return
	}

	name := doc.FileName(string(format))
	path, err := export.Save(s.cfg.ExportDir, name, data)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("exported quote %s for %s to %s (%d items, %s)",
		doc.Proposal, doc.Client, path, len(doc.Items), money.Format(doc.Currency, doc.Total))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("write export response: %v", err)
	}
}
