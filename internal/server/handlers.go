package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/pipeline"
	"github.com/matzehuels/crewboard/pkg/plan"
)

// =============================================================================
// Response types
// =============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string      `json:"detail"`
	Code   errors.Code `json:"code,omitempty"`
}

// SaveRequest is the body of POST /designer/save-diagram. Diagram holds the
// diagram as a JSON string, as the editor sends it; a JSON object is
// accepted as well.
type SaveRequest struct {
	Name    string          `json:"name"`
	Diagram json.RawMessage `json:"diagram"`
}

// SaveResponse answers a successful save.
type SaveResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// PlanResponse answers POST /designer/execution-plan. Planning failures are
// reported in-band with Status "error".
type PlanResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message,omitempty"`
	Plan          *plan.Plan `json:"plan,omitempty"`
	BranchesCount int        `json:"branches_count,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.Filename)
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSaveDiagram(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidName, "diagram name is required"))
		return
	}

	d, err := decodeEmbedded(req.Diagram)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filename, err := s.store.Save(r.Context(), req.Name, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("saved diagram", "filename", filename, "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, SaveResponse{Message: "Diagram saved", Filename: filename})
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := s.store.Delete(r.Context(), filename); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("deleted diagram", "filename", filename, "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	d, err := readDiagram(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), d, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	d, err := readDiagram(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}

	result, err := s.runner.Execute(r.Context(), d, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func (s *Server) handleExecutionPlan(w http.ResponseWriter, r *http.Request) {
	d, err := readDiagram(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := plan.Build(d)
	if err != nil {
		s.logger.Warn("cannot plan diagram", "error", err, "request_id", RequestID(r.Context()))
		writeJSON(w, http.StatusOK, PlanResponse{Status: "error", Message: errors.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, PlanResponse{Status: "success", Plan: p, BranchesCount: p.Branches})
}

// =============================================================================
// Helpers
// =============================================================================

// options derives pipeline options from the server defaults and the
// width and type query parameters.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Formats = nil
	q := r.URL.Query()
	if v := q.Get("type"); v != "" {
		opts.VizType = v
	}
	if v := q.Get("width"); v != "" {
		width, err := strconv.ParseFloat(v, 64)
		if err != nil || width <= 0 || pipeline.ValidateCanvasWidth(width) != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid width %q", v)
		}
		opts.CanvasWidth = width
	}
	return opts, nil
}

func readDiagram(w http.ResponseWriter, r *http.Request) (*diagram.Diagram, error) {
	d, err := diagram.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes), diagram.FormatJSON)
	if err != nil {
		return nil, err
	}
	d.Normalize()
	return d, nil
}

// decodeEmbedded decodes the diagram field of a save request, which is
// either a JSON string holding the document or the document itself.
func decodeEmbedded(raw json.RawMessage) (*diagram.Diagram, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "diagram is required")
	}
	data := []byte(raw)
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "diagram is not valid JSON")
		}
		data = []byte(text)
	}
	d, err := diagram.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "diagram is not valid JSON")
	}
	return d, nil
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "application/json"
	}
}

// writeJSON encodes v before writing the header so an unencodable value
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		body = []byte(`{"detail":"failed to encode response","code":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", RequestID(r.Context()))
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, ErrorResponse{Detail: errors.UserMessage(err), Code: errors.GetCode(err)})
}
