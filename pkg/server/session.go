package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/renderer"
	"github.com/matzehuels/forcegraph/pkg/schedule"
)

// session is one renderer and the loop that owns it. Everything touching
// rend goes through loop.Do.
type session struct {
	id        string
	opts      pipeline.Options
	rend      *renderer.Renderer
	loop      *schedule.Loop
	createdAt time.Time

	used   atomic.Int64
	cancel context.CancelFunc
	done   chan struct{}
}

// createRequest is the body of POST /sessions. Every field is optional.
type createRequest struct {
	Width            int            `json:"width,omitempty"`
	Height           int            `json:"height,omitempty"`
	Background       string         `json:"background,omitempty"`
	Mode             string         `json:"mode,omitempty"`
	CancelSuperseded *bool          `json:"cancel_superseded,omitempty"`
	Layout           *layout.Params `json:"layout,omitempty"`
}

func (s *Server) newSession(req createRequest) (*session, error) {
	opts := s.cfg.Defaults
	if req.Width != 0 {
		opts.Width = req.Width
	}
	if req.Height != 0 {
		opts.Height = req.Height
	}
	if req.Background != "" {
		opts.Background = req.Background
	}
	if req.Mode != "" {
		opts.Mode = req.Mode
	}
	if req.CancelSuperseded != nil {
		opts.CancelSuperseded = *req.CancelSuperseded
	}
	if req.Layout != nil {
		opts.Layout = *req.Layout
	}

	id := uuid.NewString()
	opts.Logger = s.logger.With("session", id[:8])
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	exec := schedule.NewExecutor()
	rend, err := renderer.New(opts.Width, opts.Height, append(opts.RendererOptions(), renderer.WithExecutor(exec))...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, errSessionLimit
	}
	ctx, cancel := context.WithCancel(s.ctx)
	sess := &session{
		id:        id,
		opts:      opts,
		rend:      rend,
		loop:      schedule.NewLoop(exec, opts.Logger),
		createdAt: s.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	sess.touch(s.now())
	s.sessions[id] = sess
	s.mu.Unlock()

	go func() {
		defer close(sess.done)
		_ = sess.loop.Run(ctx)
	}()
	opts.Logger.Info("session created", "canvas", opts.String())
	return sess, nil
}

var errSessionLimit = errors.New(errors.ErrCodeUnsupported, "session limit reached")

// session looks up id and marks it used.
func (s *Server) session(id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "session %q not found", id)
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *Server) removeSession(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
	return ok
}

func (sess *session) touch(t time.Time) { sess.used.Store(t.UnixNano()) }

func (sess *session) lastUsed() time.Time { return time.Unix(0, sess.used.Load()) }

// do runs fn on the session loop. A closed session reports NOT_FOUND.
func (sess *session) do(ctx context.Context, fn func()) error {
	err := sess.loop.Do(ctx, fn)
	if err == schedule.ErrLoopStopped {
		return errors.New(errors.ErrCodeNotFound, "session %q closed", sess.id)
	}
	return err
}

// close stops the loop and waits for it. Queued render tasks are dropped.
func (sess *session) close() {
	sess.cancel()
	<-sess.done
	sess.opts.Logger.Info("session closed")
}
