package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/heartmarshall/wordgen/internal/domain"
)

const defaultCloseGrace = 500 * time.Millisecond

// Submitter starts a generation run on the backend and returns the
// server-issued request id.
type Submitter interface {
	Submit(ctx context.Context, req domain.WordRequest) (string, error)
}

// Dialer opens the push channel for a submitted request. The channel is
// parameterized by (user id, normalized source word, target language).
type Dialer interface {
	Dial(ctx context.Context, req domain.WordRequest) (*websocket.Conn, error)
}

// WebsocketDialer dials the real streaming endpoint.
type WebsocketDialer struct {
	BaseURL string
}

func (d WebsocketDialer) Dial(ctx context.Context, req domain.WordRequest) (*websocket.Conn, error) {
	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}
	q := u.Query()
	q.Set("user_id", req.UserID)
	q.Set("source_word", req.SourceWord)
	q.Set("target_language", req.TargetLanguage)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Manager owns at most one live push channel per outstanding request.
// Opening a new channel always closes the prior one first, so connections
// never leak. All frames of one channel are read by a single goroutine and
// delivered in order on Events().
type Manager struct {
	submitter  Submitter
	dialer     Dialer
	log        *slog.Logger
	closeGrace time.Duration

	mu         sync.Mutex
	conn       *websocket.Conn
	cancelRead context.CancelFunc

	connected atomic.Bool
	events    chan Event
}

// Option configures a Manager.
type Option func(*Manager)

// WithCloseGrace overrides the delay between a connection_close event and
// the local teardown it schedules.
func WithCloseGrace(d time.Duration) Option {
	return func(m *Manager) { m.closeGrace = d }
}

// NewManager creates a Manager. The events channel is buffered; a consumer
// must drain it while a channel is open.
func NewManager(submitter Submitter, dialer Dialer, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		submitter:  submitter,
		dialer:     dialer,
		log:        log.With("component", "stream"),
		closeGrace: defaultCloseGrace,
		events:     make(chan Event, 32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit validates the request, normalizes the word, performs the remote
// submission call, and on success opens the push channel for the run.
// Validation failures wrap domain.ErrMissingField; transport failures
// surface as *domain.SubmissionError from the submitter.
func (m *Manager) Submit(ctx context.Context, req domain.WordRequest) (string, error) {
	if strings.TrimSpace(req.SourceWord) == "" {
		return "", fmt.Errorf("source_word: %w", domain.ErrMissingField)
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		return "", fmt.Errorf("target_language: %w", domain.ErrMissingField)
	}
	req.SourceWord = domain.NormalizeWord(req.SourceWord)

	id, err := m.submitter.Submit(ctx, req)
	if err != nil {
		return "", err
	}
	req.RequestID = id

	if err := m.open(ctx, req); err != nil {
		return id, err
	}
	return id, nil
}

// Reconnect re-opens the channel for an already-submitted, still-pending
// request without resubmitting it. The caller supplies the serialized
// request context captured at submission time.
func (m *Manager) Reconnect(ctx context.Context, rc domain.RequestContext) error {
	if strings.TrimSpace(rc.SourceWord) == "" {
		return fmt.Errorf("source_word: %w", domain.ErrMissingField)
	}
	if strings.TrimSpace(rc.TargetLanguage) == "" {
		return fmt.Errorf("target_language: %w", domain.ErrMissingField)
	}
	req := rc.Request()
	req.SourceWord = domain.NormalizeWord(req.SourceWord)
	return m.open(ctx, req)
}

// Events returns the inbound event stream. The channel is shared across
// reconnects and is never closed by the manager.
func (m *Manager) Events() <-chan Event { return m.events }

// Connected reports whether a channel is currently live.
func (m *Manager) Connected() bool { return m.connected.Load() }

// Close tears down the current channel, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked(websocket.StatusNormalClosure, "client closed")
}

func (m *Manager) open(ctx context.Context, req domain.WordRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked(websocket.StatusNormalClosure, "reopening")
	m.drainEvents()

	conn, err := m.dialer.Dial(ctx, req)
	if err != nil {
		m.log.Error("open channel failed",
			slog.String("source_word", req.SourceWord),
			slog.String("target_language", req.TargetLanguage),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("open channel: %w", err)
	}

	m.conn = conn
	m.connected.Store(true)

	readCtx, cancel := context.WithCancel(context.Background())
	m.cancelRead = cancel
	go m.readLoop(readCtx, conn)

	m.log.Info("channel opened",
		slog.String("source_word", req.SourceWord),
		slog.String("target_language", req.TargetLanguage),
		slog.String("request_id", req.RequestID),
	)
	return nil
}

// drainEvents discards frames still buffered from a previous channel,
// so the next channel's consumer never observes another run's state.
func (m *Manager) drainEvents() {
	for {
		select {
		case <-m.events:
		default:
			return
		}
	}
}

// closeIfCurrent tears down the given channel only if it is still the
// live one; a channel opened after it is left alone.
func (m *Manager) closeIfCurrent(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == conn {
		m.closeLocked(websocket.StatusNormalClosure, "server close")
	}
}

func (m *Manager) closeLocked(code websocket.StatusCode, reason string) {
	if m.cancelRead != nil {
		m.cancelRead()
		m.cancelRead = nil
	}
	if m.conn != nil {
		m.conn.Close(code, reason)
		m.conn = nil
	}
	m.connected.Store(false)
}

// readLoop is the single sequential frame handler for one channel. It
// decodes defensively: an undecodable frame is logged and dropped without
// tearing the channel down, and unknown tags are forwarded after logging.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
			m.cancelRead = nil
			m.connected.Store(false)
		}
		m.mu.Unlock()
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Transport drop: surfaced only through Connected().
			m.log.Debug("channel read ended", slog.String("error", err.Error()))
			return
		}

		ev, err := Decode(data)
		if err != nil {
			m.log.Warn("dropping undecodable frame", slog.String("error", err.Error()))
			continue
		}
		if u, ok := ev.(Unknown); ok {
			m.log.Warn("unrecognized event tag", slog.String("tag", u.Tag))
		}

		select {
		case m.events <- ev:
		case <-ctx.Done():
			return
		}

		if _, ok := ev.(ConnectionClose); ok {
			// Delayed so consumers of the final events react first. The
			// timer is bound to this channel: reopening within the grace
			// window must not be torn down by it.
			time.AfterFunc(m.closeGrace, func() { m.closeIfCurrent(conn) })
		}
	}
}
