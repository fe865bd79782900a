package server

import (
	"log"
	"net/http"

	"telematic/internal/database"
	"telematic/internal/presets"
	"telematic/internal/system"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ov, err := s.agg.Overview()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleSystemVitals(w http.ResponseWriter, r *http.Request) {
	vitals, err := system.GetVitals()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := database.StoreSystemVital(vitals.CPUPercent, vitals.MemPercent, vitals.DiskPercent); err != nil {
		log.Printf("Failed to store system vitals: %v", err)
	}

	writeJSON(w, http.StatusOK, vitals)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	list, err := presets.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
