package server

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"telematic/internal/assets"
	"telematic/internal/database"
	"telematic/internal/storage"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to disk.
const maxUploadMemory = 8 << 20

func (s *Server) assetService(botID string) *assets.Service {
	return assets.NewService(botID, s.store)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := database.GetBot(id); err != nil {
		writeError(w, err)
		return
	}

	listed, err := s.assetService(id).Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

type uploadResponse struct {
	Uploaded []assets.Asset `json:"uploaded"`
	Errors   []string       `json:"errors"`
}

// handleUploadDocuments accepts any number of files in one request and
// dispatches them as independent uploads.
func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := database.GetBot(id); err != nil {
		writeError(w, err)
		return
	}

	s.serveUpload(w, r, s.assetService(id))
}

// serveUpload runs the shared multipart upload flow against an asset
// scope. Used for existing bots and for the wizard's final step alike.
func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request, svc *assets.Service) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart payload"})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no files in request"})
		return
	}

	files := make([]assets.File, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, fmt.Errorf("failed to open uploaded file %s: %w", h.Filename, err))
			return
		}
		opened = append(opened, f)
		files = append(files, assets.File{
			Name:        h.Filename,
			Reader:      f,
			Size:        h.Size,
			ContentType: h.Header.Get("Content-Type"),
		})
	}

	results := svc.UploadAll(r.Context(), files)

	resp := uploadResponse{Uploaded: []assets.Asset{}, Errors: []string{}}
	for _, res := range results {
		if res.Err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", res.Filename, res.Err))
			continue
		}
		resp.Uploaded = append(resp.Uploaded, *res.Asset)
	}

	code := http.StatusOK
	if len(resp.Uploaded) == 0 && len(resp.Errors) > 0 {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key := r.PathValue("key")
	if _, err := database.GetBot(id); err != nil {
		writeError(w, err)
		return
	}

	if err := s.assetService(id).Remove(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleWelcomeImage replaces the single welcome-image slot and records
// the new key on the bot.
func (s *Server) handleWelcomeImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bot, err := database.GetBot(id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart payload"})
		return
	}
	f, h, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no file in request"})
		return
	}
	defer f.Close()

	if h.Size > storage.MaxObjectSize {
		writeError(w, storage.ErrTooLarge)
		return
	}

	welcome, err := s.assetService(id).ReplaceWelcome(
		r.Context(), bot.WelcomeImgKey, h.Filename, f, h.Size, h.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}

	bot.WelcomeImgKey = welcome.Key
	if err := database.UpdateBot(id, bot); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, welcome)
}
