package server

import (
	"net/http"

	"telematic/internal/wizard"
)

type wizardState struct {
	Draft   string           `json:"draft"`
	Step    wizard.Step      `json:"step"`
	Step1   wizard.Step1Data `json:"step1"`
	Step2   wizard.Step2Data `json:"step2"`
	Created string           `json:"created,omitempty"`
}

func (s *Server) wizardStateOf(id string, d *wizard.Draft) wizardState {
	st := wizardState{
		Draft: id,
		Step:  d.Step(),
		Step1: d.Step1Data(),
		Step2: d.Step2Data(),
	}
	if bot, err := d.Created(); err == nil {
		st.Created = bot.ID
	}
	return st
}

func (s *Server) draftFromPath(w http.ResponseWriter, r *http.Request) (string, *wizard.Draft, bool) {
	id := r.PathValue("draft")
	d, err := s.drafts.Get(id)
	if err != nil {
		writeError(w, err)
		return "", nil, false
	}
	return id, d, true
}

func (s *Server) handleWizardStart(w http.ResponseWriter, r *http.Request) {
	id, d := s.drafts.Start()
	writeJSON(w, http.StatusCreated, s.wizardStateOf(id, d))
}

func (s *Server) handleWizardState(w http.ResponseWriter, r *http.Request) {
	id, d, ok := s.draftFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.wizardStateOf(id, d))
}

// handleWizardStep1 applies edits to the first step's fields. Only fields
// present in the payload are touched; a name edit re-derives the
// identifier unless it was ever edited by hand, an id edit marks it
// manually touched for good.
func (s *Server) handleWizardStep1(w http.ResponseWriter, r *http.Request) {
	id, d, ok := s.draftFromPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Name      *string `json:"name"`
		ID        *string `json:"id"`
		Token     *string `json:"token"`
		ChannelID *int64  `json:"channel_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Name != nil {
		if err := d.SetName(*req.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.ID != nil {
		if err := d.SetIdentifier(*req.ID); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Token != nil {
		if err := d.SetToken(*req.Token); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.ChannelID != nil {
		if err := d.SetChannelID(*req.ChannelID); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, s.wizardStateOf(id, d))
}

func (s *Server) handleWizardStep2(w http.ResponseWriter, r *http.Request) {
	id, d, ok := s.draftFromPath(w, r)
	if !ok {
		return
	}

	var data wizard.Step2Data
	if err := decodeJSON(r, &data); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := d.SetStep2(data); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.wizardStateOf(id, d))
}

func (s *Server) handleWizardNext(w http.ResponseWriter, r *http.Request) {
	id, d, ok := s.draftFromPath(w, r)
	if !ok {
		return
	}
	if err := d.Next(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wizardStateOf(id, d))
}

func (s *Server) handleWizardBack(w http.ResponseWriter, r *http.Request) {
	id, d, ok := s.draftFromPath(w, r)
	if !ok {
		return
	}
	if err := d.Back(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wizardStateOf(id, d))
}

func (s *Server) handleWizardSubmit(w http.ResponseWriter, r *http.Request) {
	id, d, ok := s.draftFromPath(w, r)
	if !ok {
		return
	}
	if _, err := d.Submit(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wizardStateOf(id, d))
}

// handleWizardUpload uploads documents through the draft's asset scope,
// which exists only once the bot has been created.
func (s *Server) handleWizardUpload(w http.ResponseWriter, r *http.Request) {
	_, d, ok := s.draftFromPath(w, r)
	if !ok {
		return
	}

	scope, err := d.Assets()
	if err != nil {
		writeError(w, err)
		return
	}
	s.serveUpload(w, r, scope)
}

func (s *Server) handleWizardDiscard(w http.ResponseWriter, r *http.Request) {
	s.drafts.Discard(r.PathValue("draft"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}
