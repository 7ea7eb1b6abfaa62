// Package linebuf reads protocol lines from a byte stream through a
// fixed-capacity buffer. The buffer size bounds both the memory used
// per connection and the longest line that can be returned intact.
package linebuf

import (
	"bytes"
	"io"
)

const DefaultSize = 1024

type Reader struct {
	src io.Reader
	buf []byte
	n   int
	eof bool
	// read error held back while buffered bytes were still consumed
	pending error
}

func New(src io.Reader, size int) *Reader {
	if size <= 0 {
		size = DefaultSize
	}
	return &Reader{
		src: src,
		buf: make([]byte, size),
	}
}

// ReadLine returns the next line including its LF terminator. Multiple
// lines received in one underlying read are returned one at a time, and
// a line split across several reads is reassembled.
//
// A returned line without a trailing LF means either the buffer filled
// up before a terminator arrived (the next call continues from the
// overflow point) or the stream closed with trailing data. After a
// clean close ReadLine returns io.EOF; other read failures are returned
// as-is.
func (r *Reader) ReadLine() ([]byte, error) {
	for {
		if i := bytes.IndexByte(r.buf[:r.n], '\n'); i >= 0 {
			return r.take(i + 1), nil
		}
		if r.eof {
			if r.n > 0 {
				return r.take(r.n), nil
			}
			return nil, io.EOF
		}
		if r.n == len(r.buf) {
			// Full buffer with no terminator: hand out the whole
			// buffer as an unterminated line.
			return r.take(r.n), nil
		}
		if r.pending != nil {
			err := r.pending
			r.pending = nil
			return nil, err
		}
		k, err := r.src.Read(r.buf[r.n:])
		r.n += k
		if err == io.EOF {
			r.eof = true
			continue
		}
		if err != nil {
			if k > 0 {
				// Scan what arrived first; report the error once
				// the buffered data runs out.
				r.pending = err
				continue
			}
			return nil, err
		}
	}
}

// take copies out the first m buffered bytes and shifts the rest of the
// buffer to the front.
func (r *Reader) take(m int) []byte {
	out := make([]byte, m)
	copy(out, r.buf[:m])
	copy(r.buf, r.buf[m:r.n])
	r.n -= m
	return out
}
