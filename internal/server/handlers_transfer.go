package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"telematic/internal/storage"
)

// handleExport streams the collection as JSON (configuration only) or as a
// zip archive with assets, selected by ?format=json|zip.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("format") {
	case "zip":
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="telematic-export.zip"`)
		if err := s.transfer.ExportZip(r.Context(), w); err != nil {
			writeError(w, err)
			return
		}
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="telematic-export.json"`)
		if err := s.transfer.ExportJSON(w); err != nil {
			writeError(w, err)
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown export format"})
	}
}

// handleImport accepts either encoding; both funnel into the same
// per-item import, so partial success comes back as a normal report.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "application/zip"):
		body, err := io.ReadAll(io.LimitReader(r.Body, 4*storage.MaxObjectSize))
		if err != nil {
			writeError(w, err)
			return
		}
		report, err := s.transfer.ImportZip(r.Context(), bytes.NewReader(body), int64(len(body)))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.agg.Refresh()
		writeJSON(w, http.StatusOK, report)

	case strings.HasPrefix(contentType, "application/json"), contentType == "":
		report, err := s.transfer.ImportJSON(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.agg.Refresh()
		writeJSON(w, http.StatusOK, report)

	default:
		writeError(w, storage.ErrUnsupportedType)
	}
}
