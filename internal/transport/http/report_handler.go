package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"pyq-analyzer/internal/domain"
	"pyq-analyzer/internal/report"
)

// ReportHandler serves the latest report: from the archive when one is
// configured, otherwise from the report file on disk.
type ReportHandler struct {
	loader   ReportLoader
	subject  string
	filePath string
}

func NewReportHandler(loader ReportLoader, subject, filePath string) *ReportHandler {
	return &ReportHandler{loader: loader, subject: subject, filePath: filePath}
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rep, err := h.load(r)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			http.Error(w, "no report available", http.StatusNotFound)
			return
		}
		log.Printf("[serve] load report: %v", err)
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		log.Printf("[serve] encode report: %v", err)
	}
}

func (h *ReportHandler) load(r *http.Request) (domain.PatternReport, error) {
	if h.loader != nil {
		rep, err := h.loader.LoadLatest(r.Context(), h.subject)
		if err == nil {
			return rep, nil
		}
		if !errors.Is(err, domain.ErrReportNotFound) {
			return domain.PatternReport{}, err
		}
		// Fall through to the file if nothing is archived yet.
	}
	rep, err := report.ReadFile(h.filePath)
	if err != nil {
		return domain.PatternReport{}, domain.ErrReportNotFound
	}
	return rep, nil
}
