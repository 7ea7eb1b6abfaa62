package linebuf

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns one predefined chunk per Read call.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := c.chunks[0]
	c.chunks = c.chunks[1:]
	n := copy(p, chunk)
	if n < len(chunk) {
		c.chunks = append([][]byte{chunk[n:]}, c.chunks...)
	}
	return n, nil
}

func chunks(parts ...string) *chunkReader {
	c := &chunkReader{}
	for _, p := range parts {
		c.chunks = append(c.chunks, []byte(p))
	}
	return c
}

func TestCoalescedLines(t *testing.T) {
	r := New(chunks("A\nB\n"), 16)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "A\n", string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "B\n", string(line))

	_, err = r.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestLineSpanningReads(t *testing.T) {
	r := New(chunks("A", "B\n"), 16)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "AB\n", string(line))
}

func TestOverflow(t *testing.T) {
	r := New(chunks("abcdefgh\n"), 4)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(line), "full buffer without terminator")

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "efgh", string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "\n", string(line), "overflow continues where it left off")
}

func TestTrailingDataBeforeEOF(t *testing.T) {
	r := New(strings.NewReader("hello\nworld"), 16)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "world", string(line), "tail is returned once, without a terminator")

	_, err = r.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestEmptyStream(t *testing.T) {
	r := New(bytes.NewReader(nil), 16)
	_, err := r.ReadLine()
	assert.Equal(t, io.EOF, err)
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n := copy(p, f.data)
	f.data = nil
	return n, f.err
}

func TestReadError(t *testing.T) {
	broken := errors.New("connection reset")

	t.Run("immediate", func(t *testing.T) {
		r := New(&failingReader{err: broken}, 16)
		_, err := r.ReadLine()
		assert.Equal(t, broken, err)
	})

	t.Run("after buffered line", func(t *testing.T) {
		r := New(&failingReader{data: []byte("last\n"), err: broken}, 16)
		line, err := r.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "last\n", string(line))

		_, err = r.ReadLine()
		assert.Equal(t, broken, err)
	})
}

func TestManyLinesOneRead(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("line\r\n")
	}
	r := New(strings.NewReader(b.String()), 1024)
	for i := 0; i < 50; i++ {
		line, err := r.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "line\r\n", string(line))
	}
	_, err := r.ReadLine()
	assert.Equal(t, io.EOF, err)
}
