package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/config"
	"github.com/Simplici0/printquote/internal/db"
	"github.com/Simplici0/printquote/internal/migrations"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/seed"
)

func newTestServer(t *testing.T, seedCatalog bool) *server {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if seedCatalog {
		if _, err := seed.Run(database); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	cfg := config.Config{
		Env:            "test",
		CMThreshold:    decimal.NewFromInt(10),
		AddonPolicy:    pricing.AddonPerArea,
		CurrencySymbol: "R$",
		ExportDir:      filepath.Join(t.TempDir(), "exports"),
	}
	srv := newServer(database, cfg)
	srv.now = func() time.Time { return time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC) }
	return srv
}

func send(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rr.Code, want, rr.Body.String())
	}
}

func TestProductRoutes(t *testing.T) {
	srv := newTestServer(t, false)
	h := srv.routes()

	rr := send(t, h, http.MethodPost, "/products", url.Values{
		"name":           {"Big Banner"},
		"pricing_mode":   {"area"},
		"rate_per_area":  {"25,00"},
		"default_width":  {"100"},
		"default_height": {"X"},
	})
	expectStatus(t, rr, http.StatusOK)

	var saved productView
	decode(t, rr, &saved)
	if saved.ID == 0 || saved.Mode != pricing.PerArea {
		t.Fatalf("saved = %+v", saved)
	}
	if saved.RatePerArea == nil || !saved.RatePerArea.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("rate_per_area = %v, want 25", saved.RatePerArea)
	}
	if saved.DefaultWidth != "1.00" || saved.DefaultHeight != "X" {
		t.Fatalf("defaults = %s x %s, want 1.00 x X", saved.DefaultWidth, saved.DefaultHeight)
	}

	rr = send(t, h, http.MethodGet, "/products/Big%20Banner", nil)
	expectStatus(t, rr, http.StatusOK)

	rr = send(t, h, http.MethodGet, "/products/big%20banner", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = send(t, h, http.MethodPost, "/products", url.Values{"name": {"Cheap"}, "pricing_mode": {"length"}})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	var verr errorResponse
	decode(t, rr, &verr)
	if verr.Field != "rate_per_length" || verr.Constraint != "required" {
		t.Fatalf("error = %+v, want rate_per_length/required", verr)
	}

	rr = send(t, h, http.MethodDelete, "/products/Big%20Banner", nil)
	expectStatus(t, rr, http.StatusNoContent)

	rr = send(t, h, http.MethodDelete, "/products/Big%20Banner", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = send(t, h, http.MethodGet, "/products", nil)
	expectStatus(t, rr, http.StatusOK)
	var list []productView
	decode(t, rr, &list)
	if len(list) != 0 {
		t.Fatalf("expected empty catalog, got %+v", list)
	}
}

func TestDeleteAllProducts(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodDelete, "/products", nil)
	expectStatus(t, rr, http.StatusOK)

	var out map[string]int64
	decode(t, rr, &out)
	if out["removed"] != 5 {
		t.Fatalf("removed = %d, want 5", out["removed"])
	}
}

func TestProductNamesFeedPicker(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodGet, "/product-names", nil)
	expectStatus(t, rr, http.StatusOK)

	var names []string
	decode(t, rr, &names)
	want := []string{"Adhesive Vinyl", "Banner", "Business Card", "Sticker", "Vinyl Trim"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("names = %v, want %v", names, want)
	}

	rr = send(t, h, http.MethodDelete, "/products", nil)
	expectStatus(t, rr, http.StatusOK)

	rr = send(t, h, http.MethodGet, "/product-names", nil)
	expectStatus(t, rr, http.StatusOK)
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("names after delete-all = %s, want []", body)
	}
}

func TestTierRoutesRejectOverlap(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodPost, "/products/Sticker/tiers", url.Values{
		"qty_min": {"5"}, "qty_max": {"15"}, "unit_price": {"6.00"},
	})
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	var verr errorResponse
	decode(t, rr, &verr)
	if verr.Constraint != "overlaps_existing_tier" {
		t.Fatalf("constraint = %q, want overlaps_existing_tier", verr.Constraint)
	}

	rr = send(t, h, http.MethodGet, "/products/Sticker/tiers", nil)
	expectStatus(t, rr, http.StatusOK)
	var list pricing.Tiers
	decode(t, rr, &list)
	if len(list) != 3 {
		t.Fatalf("tiers = %+v, want the 3 seeded tiers", list)
	}

	rr = send(t, h, http.MethodPost, "/products/Sticker/tiers", url.Values{
		"qty_min": {"1000"}, "qty_max": {"4999"}, "unit_price": {"3.20"},
	})
	expectStatus(t, rr, http.StatusCreated)

	rr = send(t, h, http.MethodPost, "/products/Banner/tiers", url.Values{
		"qty_min": {"1"}, "qty_max": {"2"}, "unit_price": {"1"},
	})
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = send(t, h, http.MethodDelete, "/tiers/abc", nil)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = send(t, h, http.MethodDelete, "/tiers/9999", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

type calcResponse struct {
	Mode         pricing.Mode        `json:"pricing_mode"`
	Quantity     int                 `json:"quantity"`
	UnitPrice    decimal.Decimal     `json:"unit_price"`
	Source       string              `json:"price_source"`
	Width        string              `json:"width"`
	Height       string              `json:"height"`
	Area         decimal.NullDecimal `json:"area"`
	Total        decimal.Decimal     `json:"total"`
	TotalDisplay string              `json:"total_display"`
}

func TestQuoteCalcScenarios(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodPost, "/products", url.Values{
		"name": {"Plain Banner"}, "pricing_mode": {"area"}, "rate_per_area": {"25"},
	})
	expectStatus(t, rr, http.StatusOK)

	tests := []struct {
		name      string
		form      url.Values
		wantTotal string
		wantUnit  string
		wantW     string
		wantH     string
		wantSrc   string
	}{
		{
			name:      "area from centimeters",
			form:      url.Values{"product": {"Plain Banner"}, "width": {"100"}, "height": {"50"}, "quantity": {"2"}},
			wantTotal: "25", wantUnit: "25", wantW: "1.00", wantH: "0.50", wantSrc: "product_rate",
		},
		{
			name:      "tier price",
			form:      url.Values{"product": {"Sticker"}, "quantity": {"10"}},
			wantTotal: "55", wantUnit: "5.5", wantW: "X", wantH: "X", wantSrc: "tier",
		},
		{
			name:      "first tier",
			form:      url.Values{"product": {"Sticker"}, "quantity": {"5"}},
			wantTotal: "35", wantUnit: "7", wantW: "X", wantH: "X", wantSrc: "tier",
		},
		{
			name:      "missing width falls back to rate times quantity",
			form:      url.Values{"product": {"Plain Banner"}, "height": {"80"}, "quantity": {"3"}},
			wantTotal: "75", wantUnit: "25", wantW: "X", wantH: "0.80", wantSrc: "product_rate",
		},
		{
			name:      "product defaults fill blank dimensions",
			form:      url.Values{"product": {"Banner"}, "quantity": {"1"}},
			wantTotal: "20", wantUnit: "25", wantW: "1.00", wantH: "0.80", wantSrc: "product_rate",
		},
		{
			name:      "unknown product is a manual line",
			form:      url.Values{"product": {"Mystery"}, "pricing_mode": {"unit"}, "price": {"2,5"}, "quantity": {"4"}},
			wantTotal: "10", wantUnit: "2.5", wantW: "X", wantH: "X", wantSrc: "manual",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := send(t, h, http.MethodPost, "/quote/calc", tt.form)
			expectStatus(t, rr, http.StatusOK)

			var got calcResponse
			decode(t, rr, &got)
			if !got.Total.Equal(decimal.RequireFromString(tt.wantTotal)) {
				t.Fatalf("total = %s, want %s", got.Total, tt.wantTotal)
			}
			if !got.UnitPrice.Equal(decimal.RequireFromString(tt.wantUnit)) {
				t.Fatalf("unit_price = %s, want %s", got.UnitPrice, tt.wantUnit)
			}
			if got.Width != tt.wantW || got.Height != tt.wantH {
				t.Fatalf("dims = %s x %s, want %s x %s", got.Width, got.Height, tt.wantW, tt.wantH)
			}
			if got.Source != tt.wantSrc {
				t.Fatalf("price_source = %q, want %q", got.Source, tt.wantSrc)
			}
		})
	}
}

func TestQuoteCalcDisplaysCurrency(t *testing.T) {
	srv := newTestServer(t, true)

	rr := send(t, srv.routes(), http.MethodPost, "/quote/calc", url.Values{
		"product": {"Business Card"}, "quantity": {"5000"},
	})
	expectStatus(t, rr, http.StatusOK)

	var got calcResponse
	decode(t, rr, &got)
	if got.TotalDisplay != "R$ 1,750.00" {
		t.Fatalf("total_display = %q, want R$ 1,750.00", got.TotalDisplay)
	}
	if got.Area.Valid {
		t.Fatalf("expected no area for a unit line, got %s", got.Area.Decimal)
	}
}

func TestQuoteItemsLifecycle(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodPost, "/quote/items", url.Values{
		"product": {"Banner"}, "width": {"100"}, "height": {"50"}, "quantity": {"2"},
	})
	expectStatus(t, rr, http.StatusCreated)
	var banner itemView
	decode(t, rr, &banner)
	if banner.Description != "BANNER" || banner.Position != 1 || !banner.LineTotal.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("banner item = %+v", banner)
	}

	rr = send(t, h, http.MethodPost, "/quote/items", url.Values{
		"product": {"Sticker"}, "description": {"die-cut sticker"}, "quantity": {"10"}, "total": {"50"},
	})
	expectStatus(t, rr, http.StatusCreated)
	var sticker itemView
	decode(t, rr, &sticker)
	if sticker.Position != 2 || sticker.Description != "DIE-CUT STICKER" || !sticker.LineTotal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("sticker item = %+v", sticker)
	}

	rr = send(t, h, http.MethodPost, "/quote/items", url.Values{"price": {"10"}})
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = send(t, h, http.MethodGet, "/quote/items", nil)
	expectStatus(t, rr, http.StatusOK)
	var quote quoteView
	decode(t, rr, &quote)
	if len(quote.Items) != 2 || !quote.Total.Equal(decimal.NewFromInt(75)) || quote.TotalDisplay != "R$ 75.00" {
		t.Fatalf("quote = %+v", quote)
	}

	rr = send(t, h, http.MethodPost, "/quote/items/"+banner.ID.String()+"/edit", nil)
	expectStatus(t, rr, http.StatusOK)
	var taken itemView
	decode(t, rr, &taken)
	if taken.ID != banner.ID || taken.Position != 1 {
		t.Fatalf("taken = %+v, want banner at position 1", taken)
	}

	rr = send(t, h, http.MethodDelete, "/quote/items/"+banner.ID.String(), nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = send(t, h, http.MethodDelete, "/quote/items/not-a-uuid", nil)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = send(t, h, http.MethodDelete, "/quote/positions/2", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = send(t, h, http.MethodDelete, "/quote/positions/1", nil)
	expectStatus(t, rr, http.StatusNoContent)

	rr = send(t, h, http.MethodGet, "/quote/items", nil)
	decode(t, rr, &quote)
	if len(quote.Items) != 0 || !quote.Total.IsZero() {
		t.Fatalf("quote after removals = %+v", quote)
	}
}

func TestQuoteClear(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	for i := 0; i < 3; i++ {
		rr := send(t, h, http.MethodPost, "/quote/items", url.Values{"product": {"Sticker"}, "quantity": {"1"}})
		expectStatus(t, rr, http.StatusCreated)
	}

	rr := send(t, h, http.MethodDelete, "/quote/items", nil)
	expectStatus(t, rr, http.StatusNoContent)

	if srv.quote.Len() != 0 {
		t.Fatalf("ledger has %d items after clear", srv.quote.Len())
	}
}

func TestHandleQuotePositionEditRejectsNonNumeric(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/quote/positions/first/edit", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("pos", "first")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleQuotePositionEdit(rr, req)

	expectStatus(t, rr, http.StatusBadRequest)
}

func TestHandleQuoteTextReturnsPlainText(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodPost, "/quote/items", url.Values{
		"product": {"Banner"}, "width": {"100"}, "height": {"50"}, "quantity": {"2"},
	})
	expectStatus(t, rr, http.StatusCreated)

	req := httptest.NewRequest(http.MethodGet, "/quote/text", nil)
	rr = httptest.NewRecorder()
	srv.handleQuoteText(rr, req)

	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}
	body := rr.Body.String()
	for _, expected := range []string{"1 - BANNER", "1.00x0.50", "Qty: 2", "TOTAL: R$ 25.00"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestQuoteExportWritesFile(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodPost, "/quote/export?format=csv", url.Values{"client": {"acme co"}, "proposal": {"7"}})
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = send(t, h, http.MethodPost, "/quote/items", url.Values{
		"product": {"Banner"}, "width": {"100"}, "height": {"50"}, "quantity": {"2"},
	})
	expectStatus(t, rr, http.StatusCreated)

	rr = send(t, h, http.MethodPost, "/quote/export?format=docx", url.Values{"client": {"acme co"}, "proposal": {"7"}})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = send(t, h, http.MethodPost, "/quote/export?format=csv", url.Values{"proposal": {"7"}})
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = send(t, h, http.MethodPost, "/quote/export?format=csv", url.Values{"client": {"acme co"}, "proposal": {"7"}})
	expectStatus(t, rr, http.StatusOK)

	const wantName = "quote_ACME_CO_07-2026.csv"
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, wantName) {
		t.Fatalf("Content-Disposition = %q, want %s", got, wantName)
	}
	if !strings.Contains(rr.Body.String(), "BANNER") {
		t.Fatalf("export body missing item: %s", rr.Body.String())
	}

	saved, err := os.ReadFile(filepath.Join(srv.cfg.ExportDir, wantName))
	if err != nil {
		t.Fatalf("read saved export: %v", err)
	}
	if string(saved) != rr.Body.String() {
		t.Fatalf("saved export differs from response body")
	}

	if srv.quote.Len() != 1 {
		t.Fatalf("export must not modify the quote, ledger has %d items", srv.quote.Len())
	}
}

func TestQuoteExportPDF(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.routes()

	rr := send(t, h, http.MethodPost, "/quote/items", url.Values{"product": {"Sticker"}, "quantity": {"50"}})
	expectStatus(t, rr, http.StatusCreated)

	rr = send(t, h, http.MethodPost, "/quote/export?format=pdf", url.Values{"client": {"Print House"}, "proposal": {"12"}})
	expectStatus(t, rr, http.StatusOK)

	if rr.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF-") {
		t.Fatalf("response is not a PDF")
	}
}
