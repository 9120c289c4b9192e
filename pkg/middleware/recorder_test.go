package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type flusherWriter struct {
	http.ResponseWriter
	flushed bool
}

func (f *flusherWriter) Flush() { f.flushed = true }

type hijackerWriter struct {
	http.ResponseWriter
	hijacked bool
}

func (h *hijackerWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

// bareWriter implements neither Flusher nor Hijacker.
type bareWriter struct {
	header http.Header
}

func (b *bareWriter) Header() http.Header {
	if b.header == nil {
		b.header = make(http.Header)
	}
	return b.header
}

func (b *bareWriter) Write(p []byte) (int, error) { return len(p), nil }

func (b *bareWriter) WriteHeader(int) {}

func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("hello"))

	assert.Equal(t, http.StatusOK, rec.status)
	assert.Equal(t, 5, rec.bytes)
}

func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	rec := newStatusRecorder(&bareWriter{})
	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusNotFound, rec.status)
}

func TestStatusRecorder_ReusesExisting(t *testing.T) {
	outer := newStatusRecorder(httptest.NewRecorder())
	assert.Same(t, outer, newStatusRecorder(outer))
}

func TestStatusRecorder_Flush(t *testing.T) {
	fw := &flusherWriter{ResponseWriter: httptest.NewRecorder()}
	newStatusRecorder(fw).Flush()
	assert.True(t, fw.flushed)

	// No panic when unsupported.
	newStatusRecorder(&bareWriter{}).Flush()
}

func TestStatusRecorder_Hijack(t *testing.T) {
	hw := &hijackerWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := newStatusRecorder(hw).Hijack()
	assert.NoError(t, err)
	assert.True(t, hw.hijacked)

	_, _, err = newStatusRecorder(&bareWriter{}).Hijack()
	assert.ErrorIs(t, err, http.ErrNotSupported)
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	inner := httptest.NewRecorder()
	assert.Same(t, inner, newStatusRecorder(inner).Unwrap())
}
