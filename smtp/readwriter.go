package smtp

import (
	"fmt"
	"io"

	"github.com/akopan/maildrop/linebuf"
)

type readWriter struct {
	conn io.Writer
	r    *linebuf.Reader
}

func newReadWriter(c io.ReadWriter) *readWriter {
	return &readWriter{
		conn: c,
		r:    linebuf.New(c, linebuf.DefaultSize),
	}
}

func (rw *readWriter) readLine() (string, error) {
	line, err := rw.r.ReadLine()
	if err != nil {
		return "", err
	}
	return string(line), nil
}

func (rw *readWriter) send(code int, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(rw.conn, "%d %s\r\n", code, fmt.Sprintf(format, args...))
	return err
}
