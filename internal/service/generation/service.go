// Package generation orchestrates one word-generation run end to end:
// submission, the event pump feeding the request tracker, the
// notification ledger updates derived from it, and the persisted
// request context that lets a pending run be re-attached after restart.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/heartmarshall/wordgen/internal/domain"
	"github.com/heartmarshall/wordgen/internal/notify"
	"github.com/heartmarshall/wordgen/internal/request"
	"github.com/heartmarshall/wordgen/internal/stream"
	"github.com/heartmarshall/wordgen/pkg/ctxutil"
)

const lastRequestKey = "last_request"

// pushManager is the push-channel collaborator.
type pushManager interface {
	Submit(ctx context.Context, req domain.WordRequest) (string, error)
	Reconnect(ctx context.Context, rc domain.RequestContext) error
	Events() <-chan stream.Event
	Connected() bool
	Close()
}

// storage persists the serialized context of the in-flight request,
// best-effort. May be nil.
type storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Service runs at most one generation at a time. Submitting while a run
// is live abandons the previous run first; its channel is closed when
// the new one opens, so there is never more than one event source.
type Service struct {
	push          pushManager
	notifications *notify.Store
	storage       storage
	log           *slog.Logger

	mu  sync.Mutex
	run *Run
}

// NewService wires the orchestrator. A nil storage disables request
// context persistence (Resume always reports domain.ErrNotFound).
func NewService(push pushManager, notifications *notify.Store, storage storage, log *slog.Logger) *Service {
	return &Service{
		push:          push,
		notifications: notifications,
		storage:       storage,
		log:           log.With("component", "generation"),
	}
}

// Submit validates the input, submits the request, seeds the pending
// notification, persists the request context and starts the event pump.
// The returned Run tracks this request until its terminal outcome.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Run, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	req := in.request()
	if req.UserID == "" {
		if id, ok := ctxutil.UserIDFromCtx(ctx); ok {
			req.UserID = id
		}
	}
	req.SourceWord = domain.NormalizeWord(req.SourceWord)

	s.stopCurrent()

	id, err := s.push.Submit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit request: %w", err)
	}
	req.RequestID = id

	s.notifications.Upsert(domain.Notification{
		Title:          req.SourceWord,
		Message:        "Generation queued",
		Status:         domain.StatusPending,
		SourceWord:     req.SourceWord,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		RequestID:      req.RequestID,
	}, false)

	s.saveContext(ctx, req.Context())

	run := s.startRun(req)
	s.log.Info("run started",
		slog.String("source_word", req.SourceWord),
		slog.String("target_language", req.TargetLanguage),
		slog.String("request_id", req.RequestID),
	)
	return run, nil
}

// Resume re-attaches to the persisted pending request, if one exists.
// Returns domain.ErrNotFound when nothing is pending.
func (s *Service) Resume(ctx context.Context) (*Run, error) {
	if s.storage == nil {
		return nil, domain.ErrNotFound
	}
	raw, err := s.storage.Get(ctx, lastRequestKey)
	if err != nil {
		return nil, fmt.Errorf("load request context: %w", err)
	}
	if raw == "" {
		return nil, domain.ErrNotFound
	}
	var rc domain.RequestContext
	if err := json.Unmarshal([]byte(raw), &rc); err != nil {
		return nil, fmt.Errorf("decode request context: %w", err)
	}

	return s.ResumeContext(ctx, rc)
}

// ResumeContext re-attaches to the request described by the given
// context without resubmitting it.
func (s *Service) ResumeContext(ctx context.Context, rc domain.RequestContext) (*Run, error) {
	s.stopCurrent()

	if err := s.push.Reconnect(ctx, rc); err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	req := rc.Request()
	req.SourceWord = domain.NormalizeWord(req.SourceWord)
	run := s.startRun(req)
	s.log.Info("run resumed",
		slog.String("source_word", req.SourceWord),
		slog.String("request_id", req.RequestID),
	)
	return run, nil
}

// CurrentRun returns the live run, nil when none.
func (s *Service) CurrentRun() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// Abandon stops the live run and tears the channel down. The server may
// keep processing; the persisted context stays so Resume can re-attach.
func (s *Service) Abandon() {
	s.stopCurrent()
	s.push.Close()
}

// Close stops the pump and the channel.
func (s *Service) Close() {
	s.stopCurrent()
	s.push.Close()
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	run := s.run
	s.run = nil
	s.mu.Unlock()
	if run != nil {
		run.stopOnce.Do(func() { close(run.stop) })
	}
}

func (s *Service) startRun(req domain.WordRequest) *Run {
	run := &Run{
		tracker: request.NewTracker(req),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	s.mu.Lock()
	s.run = run
	s.mu.Unlock()
	go s.pump(run)
	return run
}

// pump is the single sequential consumer of the push channel for one
// run. Every event updates the tracker and then the notification
// ledger; the terminal outcome ends the pump.
func (s *Service) pump(run *Run) {
	for {
		select {
		case <-run.stop:
			return
		case ev := <-s.push.Events():
			if !run.accepts(ev) {
				s.log.Warn("dropping frame from another request",
					slog.String("request_id", stream.RequestID(ev)),
				)
				continue
			}
			outcome := run.apply(ev)
			s.reflect(run, ev, outcome)
			if outcome != nil {
				s.clearContext()
				run.finishOnce.Do(func() { close(run.done) })
				return
			}
		}
	}
}

// reflect mirrors the tracker's state into the notification ledger.
// Live updates go through the normal override policy; a redirect is the
// one forced override, because a cache hit must supersede whatever the
// ledger held for that word.
func (s *Service) reflect(run *Run, ev stream.Event, outcome *request.Outcome) {
	snap := run.Snapshot()
	base := domain.Notification{
		Title:          snap.Entry.Word,
		SourceWord:     snap.Request.SourceWord,
		SourceLanguage: snap.Request.SourceLanguage,
		TargetLanguage: snap.Request.TargetLanguage,
		RequestID:      snap.Request.RequestID,
		Progress:       snap.Progress,
	}
	if base.Title == "" {
		base.Title = snap.Request.SourceWord
	}

	if outcome == nil {
		switch ev.(type) {
		case stream.SubscriptionConfirmed, stream.ConnectionClose, stream.Unknown:
			return
		}
		base.Status = domain.StatusProcessing
		base.Message = snap.Step
		s.notifications.Upsert(base, false)
		return
	}

	switch outcome.Kind {
	case request.OutcomeCompleted:
		base.Status = domain.StatusCompleted
		base.Message = "Word ready"
		base.Link = outcome.Route
		base.PK = outcome.Address.PK
		base.SK = outcome.Address.SK
		base.MediaRef = outcome.Address.MediaRef
		s.notifications.Upsert(base, false)
	case request.OutcomeRedirected:
		base.Status = domain.StatusRedirect
		base.Message = "Word already exists"
		base.Link = outcome.Route
		base.PK = outcome.Address.PK
		base.SK = outcome.Address.SK
		base.MediaRef = outcome.Address.MediaRef
		s.notifications.Upsert(base, true)
	case request.OutcomeInvalid, request.OutcomeFailed:
		base.Status = domain.StatusFailed
		base.Message = outcome.Reason
		s.notifications.Upsert(base, false)
	}
}

func (s *Service) saveContext(ctx context.Context, rc domain.RequestContext) {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(rc)
	if err != nil {
		s.log.Warn("serialize request context failed", slog.String("error", err.Error()))
		return
	}
	if err := s.storage.Set(ctx, lastRequestKey, string(data)); err != nil {
		s.log.Warn("persist request context failed", slog.String("error", err.Error()))
	}
}

func (s *Service) clearContext() {
	if s.storage == nil {
		return
	}
	if err := s.storage.Set(context.Background(), lastRequestKey, ""); err != nil {
		s.log.Warn("clear request context failed", slog.String("error", err.Error()))
	}
}

// Run is the handle to one tracked generation. Snapshot and Outcome are
// safe for concurrent use; the pump is the only writer.
type Run struct {
	mu      sync.Mutex
	tracker *request.Tracker

	done       chan struct{}
	stop       chan struct{}
	stopOnce   sync.Once
	finishOnce sync.Once
}

// accepts reports whether the event belongs to this run. Frames without
// a request id pass through; once both sides carry one they must match,
// so a frame buffered from an abandoned run never reaches this tracker.
func (r *Run) accepts(ev stream.Event) bool {
	id := stream.RequestID(ev)
	if id == "" {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	own := r.tracker.Snapshot().Request.RequestID
	return own == "" || own == id
}

func (r *Run) apply(ev stream.Event) *request.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome, err := r.tracker.Apply(ev)
	if err != nil {
		return nil
	}
	return outcome
}

// Snapshot returns the current render-ready state.
func (r *Run) Snapshot() request.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.Snapshot()
}

// Outcome returns the terminal outcome, nil while live.
func (r *Run) Outcome() *request.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.Outcome()
}

// Done is closed when the run reaches a terminal outcome. It is not
// closed when the run is abandoned.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the terminal outcome or context cancellation.
func (r *Run) Wait(ctx context.Context) (*request.Outcome, error) {
	select {
	case <-r.done:
		return r.Outcome(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
