package sseevents

import (
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// Writer frames typed events onto a gin response as
// data-only text/event-stream messages (no "event:" line — the
// contract's discriminator lives inside the JSON payload itself).
type Writer struct {
	c *gin.Context
}

// NewWriter sets the response headers required for a streaming
// text/event-stream body and returns a Writer bound to c.
func NewWriter(c *gin.Context) *Writer {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	return &Writer{c: c}
}

func (w *Writer) write(payload any) error {
	if err := sse.Encode(w.c.Writer, sse.Event{Data: payload}); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}

// WriteCreated writes a Created frame.
func (w *Writer) WriteCreated(e Created) error { return w.write(e) }

// WriteSync writes a Sync frame.
func (w *Writer) WriteSync(e Sync) error { return w.write(e) }

// WriteProgress writes a Progress frame.
func (w *Writer) WriteProgress(e Progress) error { return w.write(e) }

// WriteTextChunk writes a TextChunk frame.
func (w *Writer) WriteTextChunk(e TextChunk) error { return w.write(e) }

// WriteFinal writes the terminal Final frame.
func (w *Writer) WriteFinal(e Final) error { return w.write(e) }

// ClientDisconnected reports whether the underlying request's context
// has already been cancelled (client closed the connection).
func (w *Writer) ClientDisconnected() bool {
	select {
	case <-w.c.Request.Context().Done():
		return true
	default:
		return false
	}
}
