package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tarkyaio/tarka/internal/chat"
)

// sseWriter frames chat.SSEEvent values as "event: <kind>\ndata: <json>\n\n"
// (spec.md §6 "SSE framing"), flushing after every event so the console
// sees tokens as they arrive.
type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// prepareSSE sets the headers spec.md §6 requires and returns a writer, or
// false if the ResponseWriter can't stream (always true behind net/http's
// standard server).
func prepareSSE(w http.ResponseWriter) (*sseWriter, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, f: f}, true
}

func (s *sseWriter) send(ev chat.SSEEvent) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		data = []byte(`"encode_error"`)
	}
	_, _ = s.w.Write([]byte("event: " + string(ev.Kind) + "\ndata: " + string(data) + "\n\n"))
	s.f.Flush()
}

// drain forwards every event from events to the client until the channel
// closes.
func (s *sseWriter) drain(events <-chan chat.SSEEvent) {
	for ev := range events {
		s.send(ev)
	}
}
