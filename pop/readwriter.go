package pop

import (
	"bufio"
	"fmt"
	"io"
	"strings"

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

// ok sends a success response with an optional comment.
func (rw *readWriter) ok(comment string, args ...interface{}) {
	if comment != "" {
		rw.send("+OK " + fmt.Sprintf(comment, args...))
	} else {
		rw.send("+OK")
	}
}

// err sends an error response with an optional comment.
func (rw *readWriter) err(comment string) {
	if comment != "" {
		rw.send("-ERR " + comment)
	} else {
		rw.send("-ERR")
	}
}

func (rw *readWriter) send(format string, args ...interface{}) error {
	line := fmt.Sprintf(format+"\r\n", args...)
	_, err := rw.conn.Write([]byte(line))
	return err
}

// sendData streams message content line by line, dot-stuffed, and ends
// the reply with a lone dot line.
func (rw *readWriter) sendData(src io.Reader) error {
	br := bufio.NewReader(src)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if serr := rw.sendDataLine(line); serr != nil {
				return serr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return rw.send(".")
}

// sendDataLine writes one content line with CRLF and the dot-stuffing
// a data reply requires.
func (rw *readWriter) sendDataLine(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if strings.HasPrefix(line, ".") {
		line = "." + line
	}
	_, err := rw.conn.Write([]byte(line + "\r\n"))
	return err
}
