// Package json provides JSON serialization backed by goccy/go-json with
// pooled buffers.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// NewEncoder returns an encoder that does not escape HTML
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalToWriter marshals v directly to a writer
func MarshalToWriter(w io.Writer, v interface{}) error {
	return NewEncoder(w).Encode(v)
}

// StreamingEncoder writes values either as a JSON array or as
// line-delimited JSON. Each value is encoded into a pooled buffer first so
// a failing value leaves no partial output.
type StreamingEncoder struct {
	writer      io.Writer
	buf         *bytes.Buffer
	encoder     *gojson.Encoder
	firstRecord bool
	isArray     bool
	count       int64
}

// NewStreamingEncoder creates a new streaming encoder
func NewStreamingEncoder(w io.Writer, isArray bool) (*StreamingEncoder, error) {
	buf := GetBuffer()
	se := &StreamingEncoder{
		writer:      w,
		buf:         buf,
		encoder:     NewEncoder(buf),
		firstRecord: true,
		isArray:     isArray,
	}

	if isArray {
		if _, err := w.Write([]byte{'['}); err != nil {
			PutBuffer(buf)
			return nil, err
		}
	}
	return se, nil
}

// Encode encodes a single value
func (se *StreamingEncoder) Encode(v interface{}) error {
	se.buf.Reset()
	if se.isArray && !se.firstRecord {
		se.buf.WriteByte(',')
	}
	if err := se.encoder.Encode(v); err != nil {
		return err
	}
	if se.isArray {
		// the encoder terminates each value with a newline
		se.buf.Truncate(se.buf.Len() - 1)
	}
	if _, err := se.writer.Write(se.buf.Bytes()); err != nil {
		return err
	}
	se.firstRecord = false
	se.count++
	return nil
}

// Count returns the number of values written
func (se *StreamingEncoder) Count() int64 { return se.count }

// Close finalizes the encoding. It does not close the underlying writer.
func (se *StreamingEncoder) Close() error {
	defer PutBuffer(se.buf)
	if se.isArray {
		_, err := se.writer.Write([]byte{']'})
		return err
	}
	return nil
}
