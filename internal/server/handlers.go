package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mikael/pricebook/internal/export"
	"github.com/mikael/pricebook/internal/ingestion"
	"github.com/mikael/pricebook/internal/pipeline"
	"github.com/mikael/pricebook/internal/types"
)

var validate = validator.New()

// UploadDocumentRequest is the request body for document uploads.
type UploadDocumentRequest struct {
	Filename      string `json:"filename" validate:"required"`
	MIMEType      string `json:"mime_type,omitempty"`
	ContentBase64 string `json:"content_base64" validate:"required,base64"`
}

// DocumentResponse describes one document in a batch.
type DocumentResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	State    string `json:"state"`
}

// BatchResponse describes a batch and its documents.
type BatchResponse struct {
	BatchID   string             `json:"batch_id"`
	State     string             `json:"state"`
	Documents []DocumentResponse `json:"documents"`
}

// ErrorResponse is the error body for every failed request.
type ErrorResponse struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, _ *http.Request) {
	runner := s.registry.create()
	s.log.Info().Str("batch_id", runner.Batch().ID().String()).Msg("batch created")
	writeJSON(w, http.StatusCreated, batchResponse(runner))
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse(runner))
}

func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrRequest{Field: "id", Message: "must be a UUID"})
		return
	}
	if err := s.registry.remove(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ErrRequest{Message: "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, requestError(err))
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil || len(content) == 0 {
		writeError(w, &ErrRequest{Field: "content_base64", Message: "must decode to non-empty content"})
		return
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = ingestion.DetectMIME(req.Filename, content)
	}

	doc, err := runner.Batch().Add(req.Filename, mimeType, content)
	if err != nil {
		writeError(w, err)
		return
	}
	s.log.Info().
		Str("batch_id", runner.Batch().ID().String()).
		Str("document_id", doc.ID.String()).
		Str("filename", doc.Filename).
		Msg("document ingested")
	writeJSON(w, http.StatusCreated, documentResponse(doc))
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	docID, err := uuid.Parse(r.PathValue("doc_id"))
	if err != nil {
		writeError(w, &ErrRequest{Field: "doc_id", Message: "must be a UUID"})
		return
	}
	if err := runner.Batch().Remove(docID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := runner.Run(r.Context(), pipeline.RunOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeError(w, err)
		return
	}

	_, runErr := runner.Run(r.Context(), pipeline.RunOptions{
		OnProgress: func(event pipeline.ProgressEvent) {
			sse.WriteEvent("progress", event) //nolint:errcheck
		},
	})
	if runErr != nil {
		sse.WriteError(ErrorKind(runErr), runErr.Error())
		return
	}
	sse.WriteComplete(runner.Batch().ID().String(), string(runner.Batch().State()))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	runner.Batch().Reset()
	writeJSON(w, http.StatusOK, batchResponse(runner))
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result := runner.Result()
	if result == nil {
		writeError(w, &ErrNoResult{ID: runner.Batch().ID()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDownloadResult(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runnerFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result := runner.Result()
	if result == nil {
		writeError(w, &ErrNoResult{ID: runner.Batch().ID()})
		return
	}

	data, err := export.ResultJSON(result)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// handleGetRun serves persisted run records. Only available when the server
// was started with a database.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, &ErrRequest{Message: "run persistence is not enabled"})
		return
	}
	runID, err := uuid.Parse(r.PathValue("run_id"))
	if err != nil {
		writeError(w, &ErrRequest{Field: "run_id", Message: "must be a UUID"})
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, &ErrRequest{Field: "run_id", Message: "run not found"})
		return
	}

	resp := map[string]any{"run": run}
	if content, err := s.store.GetResult(r.Context(), runID); err == nil {
		resp["result"] = json.RawMessage(content)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) runnerFromPath(r *http.Request) (*pipeline.Runner, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return nil, &ErrRequest{Field: "id", Message: "must be a UUID"}
	}
	return s.registry.get(id)
}

func batchResponse(runner *pipeline.Runner) BatchResponse {
	docs := runner.Batch().Documents()
	resp := BatchResponse{
		BatchID:   runner.Batch().ID().String(),
		State:     string(runner.Batch().State()),
		Documents: make([]DocumentResponse, 0, len(docs)),
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, documentResponse(doc))
	}
	return resp
}

func documentResponse(doc types.Document) DocumentResponse {
	return DocumentResponse{
		ID:       doc.ID.String(),
		Filename: doc.Filename,
		MIMEType: doc.MIMEType,
		State:    string(doc.State),
	}
}

// requestError converts validator failures into a request error naming the
// first offending field.
func requestError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrRequest{Field: verrs[0].Field(), Message: "failed " + verrs[0].Tag() + " validation"}
	}
	return &ErrRequest{Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, HTTPStatus(err), ErrorResponse{Kind: ErrorKind(err), Error: err.Error()})
}
