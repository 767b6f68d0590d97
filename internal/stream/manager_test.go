package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/wordgen/internal/domain"
)

type submitterMock struct {
	SubmitFunc func(ctx context.Context, req domain.WordRequest) (string, error)
	calls      []domain.WordRequest
}

func (m *submitterMock) Submit(ctx context.Context, req domain.WordRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return "req-1", nil
}

// newStreamServer starts a websocket server that sends the given frames
// and then keeps the connection open until the client closes it.
func newStreamServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		for _, frame := range frames {
			if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		conn.Read(ctx)
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestManager(t *testing.T, srv *httptest.Server, sub *submitterMock, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(sub, WebsocketDialer{BaseURL: wsURL(srv)}, slog.Default(), opts...)
	t.Cleanup(m.Close)
	return m
}

func waitEvent(t *testing.T, m *Manager) Event {
	t.Helper()
	select {
	case ev := <-m.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestManager_SubmitValidation(t *testing.T) {
	t.Parallel()

	m := NewManager(&submitterMock{}, WebsocketDialer{}, slog.Default())

	_, err := m.Submit(context.Background(), domain.WordRequest{TargetLanguage: "en"})
	require.ErrorIs(t, err, domain.ErrMissingField)

	_, err = m.Submit(context.Background(), domain.WordRequest{SourceWord: "Haus"})
	require.ErrorIs(t, err, domain.ErrMissingField)
}

func TestManager_SubmitOpensChannel(t *testing.T) {
	t.Parallel()

	srv := newStreamServer(t,
		`{"type":"subscription_confirmed","request_id":"req-1"}`,
		`{"type":"processing_started","request_id":"req-1"}`,
	)
	sub := &submitterMock{}
	m := newTestManager(t, srv, sub)

	id, err := m.Submit(context.Background(), domain.WordRequest{
		SourceWord: "Müller", TargetLanguage: "en", UserID: "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", id)

	require.Len(t, sub.calls, 1)
	assert.Equal(t, "muller", sub.calls[0].SourceWord, "word must be normalized before submission")

	ev := waitEvent(t, m)
	assert.IsType(t, SubscriptionConfirmed{}, ev)
	ev = waitEvent(t, m)
	assert.IsType(t, ProcessingStarted{}, ev)
	assert.True(t, m.Connected())
}

func TestManager_SubmitterFailureDoesNotOpenChannel(t *testing.T) {
	t.Parallel()

	subErr := &domain.SubmissionError{StatusCode: 429, RateLimited: true}
	sub := &submitterMock{
		SubmitFunc: func(context.Context, domain.WordRequest) (string, error) { return "", subErr },
	}
	m := NewManager(sub, WebsocketDialer{BaseURL: "ws://127.0.0.1:0"}, slog.Default())

	_, err := m.Submit(context.Background(), domain.WordRequest{SourceWord: "Haus", TargetLanguage: "en"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.False(t, m.Connected())
}

func TestManager_DropsUndecodableFrames(t *testing.T) {
	t.Parallel()

	srv := newStreamServer(t,
		`{broken`,
		`{"type":"chunk_update","data":{"word":"haus"}}`,
	)
	m := newTestManager(t, srv, &submitterMock{})

	_, err := m.Submit(context.Background(), domain.WordRequest{SourceWord: "Haus", TargetLanguage: "en"})
	require.NoError(t, err)

	// The broken frame is dropped; the channel stays open and delivers
	// the next frame.
	ev := waitEvent(t, m)
	cu, ok := ev.(ChunkUpdate)
	require.True(t, ok, "expected ChunkUpdate, got %T", ev)
	require.NotNil(t, cu.Fields.Word)
	assert.Equal(t, "haus", *cu.Fields.Word)
	assert.True(t, m.Connected())
}

func TestManager_UnknownTagForwarded(t *testing.T) {
	t.Parallel()

	srv := newStreamServer(t, `{"type":"mystery"}`)
	m := newTestManager(t, srv, &submitterMock{})

	_, err := m.Submit(context.Background(), domain.WordRequest{SourceWord: "Haus", TargetLanguage: "en"})
	require.NoError(t, err)

	ev := waitEvent(t, m)
	u, ok := ev.(Unknown)
	require.True(t, ok, "expected Unknown, got %T", ev)
	assert.Equal(t, "mystery", u.Tag)
}

func TestManager_ConnectionCloseSchedulesTeardown(t *testing.T) {
	t.Parallel()

	srv := newStreamServer(t, `{"type":"connection_close","data":{"message":"bye"}}`)
	m := newTestManager(t, srv, &submitterMock{}, WithCloseGrace(20*time.Millisecond))

	_, err := m.Submit(context.Background(), domain.WordRequest{SourceWord: "Haus", TargetLanguage: "en"})
	require.NoError(t, err)

	// The close event is delivered before the local teardown happens.
	ev := waitEvent(t, m)
	assert.IsType(t, ConnectionClose{}, ev)

	require.Eventually(t, func() bool { return !m.Connected() },
		2*time.Second, 10*time.Millisecond, "channel should close shortly after connection_close")
}

func TestManager_ReconnectReplacesChannel(t *testing.T) {
	t.Parallel()

	srv := newStreamServer(t, `{"type":"processing_started"}`)
	m := newTestManager(t, srv, &submitterMock{})

	rc := domain.RequestContext{SourceWord: "Haus", TargetLanguage: "en", RequestID: "req-9"}
	require.NoError(t, m.Reconnect(context.Background(), rc))
	assert.True(t, m.Connected())
	<-m.Events()

	// Opening again closes the prior channel instead of leaking it.
	require.NoError(t, m.Reconnect(context.Background(), rc))
	assert.True(t, m.Connected())
}

func TestManager_ReconnectDiscardsBufferedFrames(t *testing.T) {
	t.Parallel()

	stale := newStreamServer(t, `{"type":"processing_completed","request_id":"req-old"}`)
	fresh := newStreamServer(t, `{"type":"subscription_confirmed","request_id":"req-new"}`)

	m := newTestManager(t, stale, &submitterMock{})
	_, err := m.Submit(context.Background(), domain.WordRequest{SourceWord: "Haus", TargetLanguage: "en"})
	require.NoError(t, err)

	// Leave the old channel's frame sitting in the buffer, undrained.
	time.Sleep(100 * time.Millisecond)

	m.dialer = WebsocketDialer{BaseURL: wsURL(fresh)}
	rc := domain.RequestContext{SourceWord: "Haus", TargetLanguage: "en", RequestID: "req-new"}
	require.NoError(t, m.Reconnect(context.Background(), rc))

	ev := waitEvent(t, m)
	require.IsType(t, SubscriptionConfirmed{}, ev, "got %T carrying request id %q", ev, RequestID(ev))
	assert.Equal(t, "req-new", RequestID(ev), "no frame of the old channel may survive a reconnect")
}

func TestManager_GraceTimerSparesNewChannel(t *testing.T) {
	t.Parallel()

	closing := newStreamServer(t, `{"type":"connection_close","data":{"message":"bye"}}`)
	fresh := newStreamServer(t)

	m := newTestManager(t, closing, &submitterMock{}, WithCloseGrace(150*time.Millisecond))
	_, err := m.Submit(context.Background(), domain.WordRequest{SourceWord: "Haus", TargetLanguage: "en"})
	require.NoError(t, err)

	ev := waitEvent(t, m)
	require.IsType(t, ConnectionClose{}, ev)

	// Reopen while the old channel's grace timer is still pending.
	m.dialer = WebsocketDialer{BaseURL: wsURL(fresh)}
	rc := domain.RequestContext{SourceWord: "Haus", TargetLanguage: "en"}
	require.NoError(t, m.Reconnect(context.Background(), rc))

	time.Sleep(300 * time.Millisecond)
	assert.True(t, m.Connected(), "the old channel's close timer must not tear down the new one")
}

func TestManager_ReconnectValidation(t *testing.T) {
	t.Parallel()

	m := NewManager(&submitterMock{}, WebsocketDialer{}, slog.Default())
	err := m.Reconnect(context.Background(), domain.RequestContext{TargetLanguage: "en"})
	require.ErrorIs(t, err, domain.ErrMissingField)
}
