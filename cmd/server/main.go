package main

import (
	"database/sql"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/printquote/internal/catalog"
	"github.com/Simplici0/printquote/internal/config"
	"github.com/Simplici0/printquote/internal/db"
	"github.com/Simplici0/printquote/internal/ledger"
	"github.com/Simplici0/printquote/internal/migrations"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/seed"
	"github.com/Simplici0/printquote/internal/tiers"
)

type server struct {
	cfg     config.Config
	catalog *catalog.Store
	tiers   *tiers.Manager
	engine  pricing.Engine
	now     func() time.Time

	// mu guards quote; net/http serves each request on its own goroutine.
	mu    sync.Mutex
	quote *ledger.Ledger
}

func newServer(database *sql.DB, cfg config.Config) *server {
	store := catalog.NewStore(database)
	return &server{
		cfg:     cfg,
		catalog: store,
		tiers:   tiers.NewManager(store),
		engine:  pricing.NewEngine(cfg.CMThreshold, cfg.AddonPolicy),
		now:     time.Now,
		quote:   ledger.New(),
	}
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Fatalf("failed to run database migrations: %v", err)
	}
	if version, err := migrations.Version(database); err == nil {
		log.Printf("catalog schema at version %d", version)
	}

	if cfg.SeedCatalog {
		stats, err := seed.Run(database)
		if err != nil {
			log.Fatalf("failed to seed starter catalog: %v", err)
		}
		log.Printf("starter catalog seeded: %d inserts", stats.Inserts)
	}

	srv := newServer(database, cfg)

	addr := cfg.Addr()
	log.Printf("listening on %s (add-on policy %s, cm threshold %s)", addr, cfg.AddonPolicy, cfg.CMThreshold)
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.cfg.IsDev() {
		r.Use(middleware.Logger)
	}

	r.Get("/products", s.handleProductsList)
	r.Post("/products", s.handleProductSave)
	r.Delete("/products", s.handleProductsDeleteAll)
	r.Get("/product-names", s.handleProductNames)
	r.Get("/products/{name}", s.handleProductGet)
	r.Delete("/products/{name}", s.handleProductDelete)
	r.Get("/products/{name}/tiers", s.handleTiersList)
	r.Post("/products/{name}/tiers", s.handleTierCreate)
	r.Post("/tiers/{id}", s.handleTierUpdate)
	r.Delete("/tiers/{id}", s.handleTierDelete)

	r.Post("/quote/calc", s.handleQuoteCalc)
	r.Get("/quote/items", s.handleQuoteItems)
	r.Post("/quote/items", s.handleQuoteItemAdd)
	r.Delete("/quote/items", s.handleQuoteClear)
	r.Delete("/quote/items/{id}", s.handleQuoteItemRemove)
	r.Post("/quote/items/{id}/edit", s.handleQuoteItemEdit)
	r.Delete("/quote/positions/{pos}", s.handleQuotePositionRemove)
	r.Post("/quote/positions/{pos}/edit", s.handleQuotePositionEdit)
	r.Get("/quote/text", s.handleQuoteText)
	r.Post("/quote/export", s.handleQuoteExport)

	return r
}
