package realtime

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxFrameSize = 4 << 10
	sendQueue    = 32
)

type conn struct {
	id   int64
	wc   *websocket.Conn
	send chan *Msg
}

func (c *conn) ID() int64          { return c.id }
func (c *conn) Chan() chan<- *Msg { return c.send }

// Serve upgrades requests to websocket channels attached to h. Browsers
// must present an Origin from allowed; requests without Origin are
// accepted.
func Serve(h *Hub, allowed []string, log *slog.Logger) http.HandlerFunc {
	upgr := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowed, origin)
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		wc, err := upgr.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", slog.Any("error", err))
			return
		}
		c := &conn{id: NextID(), wc: wc, send: make(chan *Msg, sendQueue)}
		h.Signon(c)
		go c.writeAll(log)
		err = c.readAll(h)
		h.Signoff(c)
		if err != nil {
			log.Warn("websocket read failed", slog.Int64("conn", c.id), slog.Any("error", err))
		}
	}
}

func (c *conn) readAll(h *Hub) error {
	c.wc.SetReadLimit(maxFrameSize)
	_ = c.wc.SetReadDeadline(time.Now().Add(pongWait))
	c.wc.SetPongHandler(func(string) error {
		return c.wc.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		op, data, err := c.wc.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
				errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			if websocket.IsUnexpectedCloseError(err) {
				return err
			}
			// Network loss and closed connections end the channel quietly.
			return nil
		}
		if op != websocket.TextMessage {
			continue
		}
		m, err := parseMsg(data)
		if err != nil {
			continue
		}
		m.From = c
		if !h.Deliver(m) {
			return nil
		}
	}
}

func (c *conn) writeAll(log *slog.Logger) {
	t := time.NewTicker(pingPeriod)
	defer func() {
		t.Stop()
		c.wc.Close()
	}()
	for {
		select {
		case m, ok := <-c.send:
			_ = c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.wc.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			b, err := m.Encode()
			if err != nil {
				log.Error("websocket encode failed", slog.Int64("conn", c.id), slog.Any("error", err))
				continue
			}
			if err := c.wc.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-t.C:
			_ = c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
