package main

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/catalog"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/tiers"
)

type productView struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Mode          pricing.Mode     `json:"pricing_mode"`
	RatePerArea   *decimal.Decimal `json:"rate_per_area,omitempty"`
	RatePerLength *decimal.Decimal `json:"rate_per_length,omitempty"`
	FlatUnitRate  *decimal.Decimal `json:"flat_unit_rate,omitempty"`
	DefaultWidth  string           `json:"default_width"`
	DefaultHeight string           `json:"default_height"`
	Tiers         pricing.Tiers    `json:"tiers,omitempty"`
}

func newProductView(p catalog.Product) productView {
	v := productView{
		ID:            p.ID,
		Name:          p.Name,
		Mode:          p.Mode(),
		DefaultWidth:  p.DefaultWidth.String(),
		DefaultHeight: p.DefaultHeight.String(),
	}

	switch r := p.Rule.(type) {
	case pricing.AreaRule:
		v.RatePerArea = &r.Rate
	case pricing.LengthRule:
		v.RatePerLength = &r.Rate
	case pricing.UnitRule:
		if r.Rate.Valid {
			v.FlatUnitRate = &r.Rate.Decimal
		}
		v.Tiers = r.Tiers
	}
	return v
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.List()
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleProductNames feeds the product picker.
func (s *server) handleProductNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.catalog.Names()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	name, ok := productNameParam(r)
	if !ok {
		badRequest(w, "invalid product name")
		return
	}

	p, err := s.catalog.Get(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (s *server) handleProductSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form")
		return
	}

	draft := catalog.Draft{
		Name:          r.FormValue("name"),
		Mode:          r.FormValue("pricing_mode"),
		RatePerArea:   r.FormValue("rate_per_area"),
		RatePerLength: r.FormValue("rate_per_length"),
		FlatUnitRate:  r.FormValue("flat_unit_rate"),
		DefaultWidth:  r.FormValue("default_width"),
		DefaultHeight: r.FormValue("default_height"),
	}

	p, err := draft.Build(s.engine.Units)
	if err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.catalog.Save(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(saved))
}

func (s *server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	name, ok := productNameParam(r)
	if !ok {
		badRequest(w, "invalid product name")
		return
	}

	if err := s.catalog.Delete(name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProductsDeleteAll(w http.ResponseWriter, r *http.Request) {
	removed, err := s.catalog.DeleteAll()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (s *server) handleTiersList(w http.ResponseWriter, r *http.Request) {
	name, ok := productNameParam(r)
	if !ok {
		badRequest(w, "invalid product name")
		return
	}

	list, err := s.tiers.List(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleTierCreate(w http.ResponseWriter, r *http.Request) {
	name, ok := productNameParam(r)
	if !ok {
		badRequest(w, "invalid product name")
		return
	}
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form")
		return
	}

	in, err := tiers.ParseInput(r.FormValue("qty_min"), r.FormValue("qty_max"), r.FormValue("unit_price"))
	if err != nil {
		writeError(w, err)
		return
	}

	tier, err := s.tiers.Add(name, in.QtyMin, in.QtyMax, in.UnitPrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tier)
}

func (s *server) handleTierUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		badRequest(w, "invalid tier id")
		return
	}
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form")
		return
	}

	in, err := tiers.ParseInput(r.FormValue("qty_min"), r.FormValue("qty_max"), r.FormValue("unit_price"))
	if err != nil {
		writeError(w, err)
		return
	}

	tier, err := s.tiers.Update(id, in.QtyMin, in.QtyMax, in.UnitPrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tier)
}

func (s *server) handleTierDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		badRequest(w, "invalid tier id")
		return
	}

	if err := s.tiers.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
