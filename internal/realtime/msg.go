// Package realtime provides the websocket hub that carries join requests
// from clients and fans attendee updates out to every connected client.
package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Message subjects.
const (
	SubjJoinEvent       = "joinEvent"
	SubjUpdateAttendees = "updateAttendees"
	SubjJoinEventFailed = "joinEventFailed"
)

// Msg is the unit passed between connections and the hub.
//
// On the wire a message is a text frame holding the subject, optionally
// followed by a newline and a JSON body:
//
//	joinEvent
//	{"eventId":"..."}
//
// Raw holds an encoded body. Data may be set instead for outgoing messages
// and is encoded as JSON when the message is written.
type Msg struct {
	From Conn
	Subj string
	Raw  []byte
	Data any
}

var errNoSubject = errors.New("message without subject")

func parseMsg(b []byte) (*Msg, error) {
	head, body := b, []byte(nil)
	if idx := bytes.IndexByte(b, '\n'); idx >= 0 {
		head, body = b[:idx], b[idx+1:]
	}
	head = bytes.TrimSpace(head)
	if len(head) == 0 {
		return nil, errNoSubject
	}
	return &Msg{Subj: string(head), Raw: copyBytes(bytes.TrimSpace(body))}, nil
}

// Encode returns the wire form of m.
func (m *Msg) Encode() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(m.Subj)
	switch {
	case len(m.Raw) != 0:
		b.WriteByte('\n')
		b.Write(m.Raw)
	case m.Data != nil:
		raw, err := json.Marshal(m.Data)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", m.Subj, err)
		}
		b.WriteByte('\n')
		b.Write(raw)
	}
	return b.Bytes(), nil
}

// Decode unmarshals the JSON body of m into v.
func (m *Msg) Decode(v any) error {
	if len(m.Raw) == 0 {
		return fmt.Errorf("%s: empty body", m.Subj)
	}
	return json.Unmarshal(m.Raw, v)
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
