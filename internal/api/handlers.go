// Package api exposes the presentation intents of a chat session over HTTP.
// Rejected input (blank text or prompt, non-image files) is answered with
// 204 No Content and no body: rejections are never shown to the user.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/comigor/chatsim-go/internal/config"
	"github.com/comigor/chatsim-go/internal/conversation"
	"github.com/comigor/chatsim-go/internal/imageflow"
	"github.com/comigor/chatsim-go/internal/logger"
)

// maxRequestBytes bounds what the transport reads. It is not the displayed
// upload limit, which is informational only.
const maxRequestBytes = 32 << 20

// Server routes intents to a conversation store.
type Server struct {
	store    *conversation.Store
	upload   config.UploadConfig
	mux      *http.ServeMux
	upgrader websocket.Upgrader
}

// New builds the routes for store.
func New(store *conversation.Store, upload config.UploadConfig) *Server {
	s := &Server{
		store:  store,
		upload: upload,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /timeline", s.handleTimeline)
	s.mux.HandleFunc("POST /messages", s.handleSendText)
	s.mux.HandleFunc("PUT /input", s.handleSetInput)
	s.mux.HandleFunc("POST /modal/upload", s.handleOpenUpload)
	s.mux.HandleFunc("POST /modal/generate", s.handleOpenGenerate)
	s.mux.HandleFunc("POST /modal/close", s.handleCloseModal)
	s.mux.HandleFunc("POST /uploads", s.handleSelectFile)
	s.mux.HandleFunc("POST /generations", s.handleGenerate)
	s.mux.HandleFunc("POST /generations/reset", s.handleResetGeneration)
	s.mux.HandleFunc("POST /sidebar/toggle", s.handleToggleSidebar)
	s.mux.HandleFunc("GET /chats", s.handleChats)
	s.mux.HandleFunc("GET /ui", s.handleUI)
	s.mux.HandleFunc("GET /blobs/{id}", s.handleBlob)
	s.mux.HandleFunc("GET /ws", s.handleWS)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type textRequest struct {
	Text string `json:"text"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type uiResponse struct {
	SuggestedPrompts []string `json:"suggested_prompts"`
	UploadMaxBytes   int64    `json:"upload_max_bytes"`
	SupportedFormats []string `json:"supported_formats"`
	SidebarOpen      bool     `json:"sidebar_open"`
	Input            string   `json:"input"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Warn("encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		logger.L.Debug("bad request body", "error", err, "path", r.URL.Path)
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// isRejection reports errors that the presentation swallows silently.
func isRejection(err error) bool {
	return errors.Is(err, conversation.ErrEmptyInput) ||
		errors.Is(err, imageflow.ErrEmptyPrompt) ||
		errors.Is(err, imageflow.ErrUnsupportedFileType) ||
		errors.Is(err, imageflow.ErrGenerationInProgress)
}

// respond answers an intent: rejections are 204, other errors 500, success
// the current snapshot.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, s.store.Snapshot())
	case isRejection(err):
		logger.L.Debug("intent rejected", "path", r.URL.Path, "reason", err)
		w.WriteHeader(http.StatusNoContent)
	default:
		logger.L.Error("intent failed", "path", r.URL.Path, "error", err)
		http.Error(w, "failed to process request", http.StatusInternalServerError)
	}
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleSendText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.respond(w, r, s.store.SubmitUserText(r.Context(), req.Text))
}

func (s *Server) handleSetInput(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.store.Session().SetInput(req.Text)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenUpload(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.store.Session().OpenUploadModal())
}

func (s *Server) handleOpenGenerate(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.store.Session().OpenGenerateModal())
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.store.Session().CloseModal())
}

func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing multipart field \"file\"", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.L.Error("read upload", "error", err)
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	source := imageflow.SourcePicker
	if r.URL.Query().Get("source") == string(imageflow.SourceDrop) {
		source = imageflow.SourceDrop
	}
	s.respond(w, r, s.store.AttachUploadedImage(r.Context(), imageflow.File{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
		Source:   source,
	}))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.respond(w, r, s.store.RequestGeneratedImage(r.Context(), req.Prompt))
}

func (s *Server) handleResetGeneration(w http.ResponseWriter, r *http.Request) {
	s.store.Images().Reset()
	s.respond(w, r, nil)
}

func (s *Server) handleToggleSidebar(w http.ResponseWriter, r *http.Request) {
	open := s.store.Session().ToggleSidebar()
	writeJSON(w, http.StatusOK, map[string]bool{"sidebar_open": open})
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Session().Chats())
}

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Session()
	writeJSON(w, http.StatusOK, uiResponse{
		SuggestedPrompts: imageflow.SuggestedPrompts(),
		UploadMaxBytes:   s.upload.MaxBytes,
		SupportedFormats: []string{"JPG", "PNG", "GIF", "WebP"},
		SidebarOpen:      sess.SidebarOpen(),
		Input:            sess.Input(),
	})
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	blob, ok := s.store.Images().Blobs().Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", blob.MIMEType)
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = w.Write(blob.Data)
}
