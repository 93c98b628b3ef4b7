package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
	"github.com/Shivanand-hulikatti/eventpulse/internal/repository"
	"github.com/Shivanand-hulikatti/eventpulse/internal/service"
)

type testServer struct {
	*httptest.Server
	hub    *Hub
	events *repository.MemoryEventRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := discardLogger()
	events := repository.NewMemoryEventRepository()
	h := NewHub(log)
	svc := service.NewAttendanceService(events, h)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx, NewJoinRouter(ctx, h, svc, 4, log))

	srv := httptest.NewServer(Serve(h, []string{"http://allowed.example"}, log))
	t.Cleanup(func() {
		h.Close()
		cancel()
		srv.Close()
	})
	return &testServer{Server: srv, hub: h, events: events}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http")
	wc, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { wc.Close() })
	return wc
}

// waitConnected blocks until n channels are signed on.
func (s *testServer) waitConnected(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.hub.Len() == n }, time.Second, 5*time.Millisecond)
}

func readMsg(t *testing.T, wc *websocket.Conn) *Msg {
	t.Helper()
	require.NoError(t, wc.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := wc.ReadMessage()
	require.NoError(t, err)
	m, err := parseMsg(data)
	require.NoError(t, err)
	return m
}

func sendJoin(t *testing.T, wc *websocket.Conn, eventID string) {
	t.Helper()
	b, err := (&Msg{Subj: SubjJoinEvent, Data: model.JoinEventRequest{EventID: eventID}}).Encode()
	require.NoError(t, err)
	require.NoError(t, wc.WriteMessage(websocket.TextMessage, b))
}

func TestServe_JoinBroadcastsToAllChannels(t *testing.T) {
	s := newTestServer(t)
	e := &model.Event{ID: uuid.New().String(), Title: "Launch", EventTime: time.Now(), Attendees: 4}
	require.NoError(t, s.events.Create(context.Background(), e))

	joiner, watcher := s.dial(t), s.dial(t)
	s.waitConnected(t, 2)

	sendJoin(t, joiner, e.ID)

	for _, wc := range []*websocket.Conn{joiner, watcher} {
		m := readMsg(t, wc)
		assert.Equal(t, SubjUpdateAttendees, m.Subj)
		var u model.AttendeesUpdate
		require.NoError(t, m.Decode(&u))
		assert.Equal(t, model.AttendeesUpdate{EventID: e.ID, Attendees: 5}, u)
	}
}

func TestServe_JoinUnknownEventNotifiesOnlyInitiator(t *testing.T) {
	s := newTestServer(t)
	joiner, watcher := s.dial(t), s.dial(t)
	s.waitConnected(t, 2)

	sendJoin(t, joiner, "no-such-event")

	m := readMsg(t, joiner)
	assert.Equal(t, SubjJoinEventFailed, m.Subj)
	var f model.JoinEventFailure
	require.NoError(t, m.Decode(&f))
	assert.Equal(t, model.JoinEventFailure{EventID: "no-such-event", Error: "event not found"}, f)

	require.NoError(t, watcher.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := watcher.ReadMessage()
	assert.Error(t, err, "watcher must not receive anything")
}

func TestServe_MalformedJoin(t *testing.T) {
	s := newTestServer(t)
	wc := s.dial(t)
	s.waitConnected(t, 1)

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("joinEvent\n{not json")))

	m := readMsg(t, wc)
	assert.Equal(t, SubjJoinEventFailed, m.Subj)
	var f model.JoinEventFailure
	require.NoError(t, m.Decode(&f))
	assert.Equal(t, "invalid join request", f.Error)
}

func TestServe_DisconnectSignsOff(t *testing.T) {
	s := newTestServer(t)
	wc := s.dial(t)
	s.waitConnected(t, 1)

	require.NoError(t, wc.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	wc.Close()

	s.waitConnected(t, 0)
}

func TestServe_RejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t)
	url := "ws" + strings.TrimPrefix(s.URL, "http")

	hdr := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	hdr = http.Header{"Origin": []string{"http://allowed.example"}}
	wc, _, err := websocket.DefaultDialer.Dial(url, hdr)
	require.NoError(t, err)
	wc.Close()
}
