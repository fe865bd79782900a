package server

import (
	"fmt"
	"net/http"
	"path"

	"telematic/internal/database"
	"telematic/internal/slug"
)

func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	bots, err := database.ListBots()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bots)
}

func (s *Server) handleGetBot(w http.ResponseWriter, r *http.Request) {
	bot, err := database.GetBot(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

// handleCreateBot is the direct creation path, bypassing the wizard. New
// bots always start disabled.
func (s *Server) handleCreateBot(w http.ResponseWriter, r *http.Request) {
	var bot database.Bot
	if err := decodeJSON(r, &bot); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if !slug.Valid(bot.ID) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bot id"})
		return
	}

	bot.Enabled = false
	if err := database.CreateBot(&bot); err != nil {
		writeError(w, err)
		return
	}

	s.agg.Refresh()
	writeJSON(w, http.StatusCreated, bot)
}

// handleUpdateBot edits an existing bot. The ID in the path wins; an ID in
// the payload is ignored since identifiers are immutable.
func (s *Server) handleUpdateBot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var bot database.Bot
	if err := decodeJSON(r, &bot); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := database.UpdateBot(id, &bot); err != nil {
		writeError(w, err)
		return
	}

	updated, err := database.GetBot(id)
	if err != nil {
		writeError(w, err)
		return
	}

	s.agg.Refresh()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := database.GetBot(id); err != nil {
		writeError(w, err)
		return
	}

	// Stop the runtime and drop stored assets before the definition goes.
	s.mgr.Forget(id)
	if err := s.assetService(id).RemoveAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := database.DeleteBot(id); err != nil {
		writeError(w, err)
		return
	}

	s.agg.Refresh()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleBotAction serves start, stop and restart. The dashboard refreshes
// immediately after the action completes.
func (s *Server) handleBotAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := path.Base(r.URL.Path)

	bot, err := database.GetBot(id)
	if err != nil {
		writeError(w, err)
		return
	}

	switch action {
	case "start":
		err = s.mgr.Start(r.Context(), *bot)
	case "stop":
		err = s.mgr.Stop(id)
	case "restart":
		err = s.mgr.Restart(r.Context(), *bot)
	default:
		err = fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	s.agg.Refresh()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "action": action})
}
