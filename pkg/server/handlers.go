package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/forcegraph/pkg/buildinfo"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/renderer"
)

// maxBodySize bounds snapshot uploads.
const maxBodySize = 16 << 20

// sessionInfo is the JSON view of a session.
type sessionInfo struct {
	ID         string         `json:"id"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Background string         `json:"background,omitempty"`
	Mode       string         `json:"mode"`
	CreatedAt  time.Time      `json:"created_at"`
	State      string         `json:"state,omitempty"`
	Pending    int            `json:"pending"`
	Group      int            `json:"group"`
	Nodes      int            `json:"nodes"`
	Edges      int            `json:"edges"`
	Stats      renderer.Stats `json:"stats"`
}

// pointerRequest is the body of POST /sessions/{id}/pointer.
type pointerRequest struct {
	Type string  `json:"type"`
	Node string  `json:"node"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// renderReply answers a queued snapshot on both the HTTP and WebSocket paths.
type renderReply struct {
	OK      bool        `json:"ok,omitempty"`
	Pending int         `json:"pending,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    errors.Code `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.SessionCount(),
		"build":    buildinfo.Get(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil && !stderrors.Is(err, io.EOF) {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid session request"))
		return
	}
	sess, err := s.newSession(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.info())
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var info sessionInfo
	if err := sess.do(r.Context(), func() { info = sess.liveInfo() }); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.removeSession(id) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var raw graph.RawSnapshot
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeMalformedSnapshot, err, "snapshot is not valid JSON"))
		return
	}
	reply, status := s.render(r, sess, raw)
	writeJSON(w, status, reply)
}

// render queues raw on the session loop. Validation happens synchronously,
// so a malformed snapshot is reported here and nothing is queued.
func (s *Server) render(r *http.Request, sess *session, raw graph.RawSnapshot) (renderReply, int) {
	var (
		renderErr error
		pending   int
	)
	err := sess.do(r.Context(), func() {
		renderErr = sess.rend.Render(raw)
		pending = sess.rend.Pending()
	})
	if err == nil {
		err = renderErr
	}
	if err != nil {
		return errorReply(err), statusFor(err)
	}
	return renderReply{OK: true, Pending: pending}, http.StatusAccepted
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.do(r.Context(), sess.rend.Reset); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req pointerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pointer event"))
		return
	}

	var pointerErr error
	switch req.Type {
	case "enter":
		err = sess.do(r.Context(), func() { pointerErr = sess.rend.PointerEnter(req.Node, req.X, req.Y) })
	case "leave":
		err = sess.do(r.Context(), func() { pointerErr = sess.rend.PointerLeave(req.Node) })
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "pointer type must be enter or leave, got %q", req.Type)
	}
	if err == nil {
		err = pointerErr
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	opts, err := exportOptions(sess.opts, format, r)
	if err != nil {
		writeError(w, err)
		return
	}

	// The fetch may sleep through retries; keep it off the session loop.
	if format == pipeline.FormatPNG {
		opts.BackgroundImage = pipeline.FetchBackground(r.Context(), sess.opts.Background, opts.Logger, s.fetcher)
	}

	var (
		artifacts map[string][]byte
		exportErr error
	)
	err = sess.do(r.Context(), func() {
		artifacts, exportErr = pipeline.Export(r.Context(), sess.rend.Scene(), opts, nil)
	})
	if err == nil {
		err = exportErr
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("Cache-Control", "no-store")
	w.Write(artifacts[format])
}

// exportOptions builds per-request export options from the session's
// settings and the query string: fit, padding, scale, tooltips, labels.
func exportOptions(base pipeline.Options, format string, r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{
		Width:      base.Width,
		Height:     base.Height,
		Background: base.Background,
		Layout:     base.Layout,
		Mode:       base.Mode,
		Formats:    []string{format},
		Fit:        base.Fit,
		Padding:    base.Padding,
		Scale:      base.Scale,
		NoTooltips: base.NoTooltips,
		DOTLabels:  base.DOTLabels,
		Logger:     base.Logger,
	}
	q := r.URL.Query()
	var err error
	parseBool := func(key string, dst *bool, invert bool) {
		if v := q.Get(key); v != "" && err == nil {
			var b bool
			if b, err = strconv.ParseBool(v); err == nil {
				*dst = b != invert
			}
		}
	}
	parseFloat := func(key string, dst *float64) {
		if v := q.Get(key); v != "" && err == nil {
			*dst, err = strconv.ParseFloat(v, 64)
		}
	}
	parseBool("fit", &opts.Fit, false)
	parseBool("tooltips", &opts.NoTooltips, true)
	parseBool("labels", &opts.DOTLabels, false)
	parseFloat("padding", &opts.Padding)
	parseFloat("scale", &opts.Scale)
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid export query")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (sess *session) info() sessionInfo {
	return sessionInfo{
		ID:         sess.id,
		Width:      sess.opts.Width,
		Height:     sess.opts.Height,
		Background: sess.opts.Background,
		Mode:       sess.opts.SceneMode().String(),
		CreatedAt:  sess.createdAt,
	}
}

// liveInfo adds renderer state. It must run on the session loop.
func (sess *session) liveInfo() sessionInfo {
	info := sess.info()
	root := sess.rend.Scene().Root()
	info.State = sess.rend.State().String()
	info.Pending = sess.rend.Pending()
	info.Group = root.Generation
	info.Nodes = root.NodeCount()
	info.Edges = root.EdgeCount()
	info.Stats = sess.rend.Stats()
	return info
}

// --- Response helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorReply(err))
}

func errorReply(err error) renderReply {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return renderReply{Error: errors.UserMessage(err), Code: code}
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeMalformedSnapshot, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
