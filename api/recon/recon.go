// Package recon exposes the commission reconciliation service: workbook
// upload and processing, run history backed by Postgres, and report
// downloads in CSV and XLSX.
package recon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"OurFloWorks/api"
	"OurFloWorks/api/constants"
	"OurFloWorks/internal/config"
	"OurFloWorks/internal/engine"
	"OurFloWorks/internal/store"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

// deps carries what the handlers need: the commission policy and the
// run-history store (nil when no database is configured).
type deps struct {
	cfg   engine.Config
	store *store.Store
}

// StartReconService starts the reconciliation HTTP server. Config keys:
// port (default 7143), policy_file (default policy.yaml).
func StartReconService(cfg map[string]interface{}, db *pgxpool.Pool) {
	d := &deps{
		cfg:   loadEngineConfig(cfg),
		store: openStore(db),
	}
	router := newRouter(d)

	port := 7143
	if cfg != nil {
		switch v := cfg["port"].(type) {
		case int:
			if v > 0 {
				port = v
			}
		case float64:
			if v > 0 {
				port = int(v)
			}
		}
	}

	addr := fmt.Sprintf(":%d", port)
	log.Println("Recon Service started on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Recon service failed: %v", err)
	}
}

func newRouter(d *deps) *mux.Router {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
	router.Handle("/recon/upload", UploadWorkbook(d)).Methods(http.MethodPost)
	router.Handle("/recon/runs", ListRuns(d)).Methods(http.MethodGet)
	router.Handle("/recon/runs/{id}", GetRun(d)).Methods(http.MethodGet)
	router.Handle("/recon/runs/{id}/report.csv", DownloadReportCSV(d)).Methods(http.MethodGet)
	router.Handle("/recon/runs/{id}/report.xlsx", DownloadReportXLSX(d)).Methods(http.MethodGet)
	router.HandleFunc("/recon/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Recon Service is active"))
	}).Methods(http.MethodGet)
	return router
}

// loadEngineConfig resolves the commission policy. A missing policy file
// falls back to the built-in policy; a malformed one is fatal.
func loadEngineConfig(cfg map[string]interface{}) engine.Config {
	path := config.DefaultPolicyFile
	if cfg != nil {
		if p, ok := cfg["policy_file"].(string); ok && p != "" {
			path = p
		}
	}
	ec, err := engine.LoadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[RECON] policy file %s not found, using built-in policy", path)
			return engine.DefaultConfig()
		}
		log.Fatalf("[RECON] invalid policy file %s: %v", path, err)
	}
	log.Printf("[RECON] loaded commission policy from %s (%d tiers)", path, len(ec.Policy.Tiers))
	return ec
}

func openStore(db *pgxpool.Pool) *store.Store {
	st := store.New(db)
	if st == nil {
		log.Println("[RECON] no database pool, run history disabled")
		return nil
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		log.Printf("[RECON] schema init failed, run history disabled: %v", err)
		return nil
	}
	return st
}
