package smtp

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akopan/maildrop/mailstore"
)

type scriptConn struct {
	io.Reader
	io.Writer
}

func testStore(t *testing.T) *mailstore.Store {
	t.Helper()
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.txt")
	require.NoError(t, os.WriteFile(usersPath, []byte("bob pw1\nalice pw2\n"), 0600))
	st, err := mailstore.Open(filepath.Join(dir, "mail"), usersPath)
	require.NoError(t, err)
	return st
}

// runSession feeds the input script to a session and returns the reply
// lines. The input running out acts as the client disconnecting.
func runSession(st *mailstore.Store, input string) []string {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	Process(scriptConn{strings.NewReader(input), &out}, st, "mx.example.net", logger)
	return strings.Split(strings.TrimRight(out.String(), "\r\n"), "\r\n")
}

func code(reply string) string {
	if len(reply) < 3 {
		return reply
	}
	return reply[:3]
}

func TestGreetingAndQuit(t *testing.T) {
	replies := runSession(testStore(t), "QUIT\r\n")
	assert.Equal(t, "220", code(replies[0]))
	assert.Equal(t, "221", code(replies[1]))
}

func TestCommandSequencing(t *testing.T) {
	st := testStore(t)

	t.Run("mail before helo", func(t *testing.T) {
		replies := runSession(st, "MAIL FROM:<a@x>\r\nQUIT\r\n")
		assert.Equal(t, "503", code(replies[1]))
	})

	t.Run("rcpt before mail", func(t *testing.T) {
		replies := runSession(st, "HELO x\r\nRCPT TO:<bob@x>\r\nQUIT\r\n")
		assert.Equal(t, "503", code(replies[2]))
	})

	t.Run("data without recipients", func(t *testing.T) {
		replies := runSession(st, "HELO x\r\nMAIL FROM:<a@x>\r\nDATA\r\nQUIT\r\n")
		assert.Equal(t, "503", code(replies[3]))
	})

	t.Run("mail twice", func(t *testing.T) {
		replies := runSession(st, "HELO x\r\nMAIL FROM:<a@x>\r\nMAIL FROM:<b@x>\r\nQUIT\r\n")
		assert.Equal(t, "503", code(replies[3]))
	})

	t.Run("unknown command", func(t *testing.T) {
		replies := runSession(st, "FROB\r\nQUIT\r\n")
		assert.Equal(t, "500", code(replies[1]))
	})
}

func TestMailArgumentParsing(t *testing.T) {
	st := testStore(t)

	for _, bad := range []string{
		"MAIL",
		"MAIL FROM:",
		"MAIL FROM:bob@x",
		"MAIL FROM:<bob>",
		"MAIL FROM:<@x>",
		"MAIL TO:<bob@x>",
	} {
		replies := runSession(st, "HELO x\r\n"+bad+"\r\nQUIT\r\n")
		assert.Equal(t, "501", code(replies[2]), bad)
	}

	replies := runSession(st, "HELO x\r\nMAIL from:<Bob@Example.net>\r\nQUIT\r\n")
	assert.Equal(t, "250", code(replies[2]), "keyword match ignores case")
}

func TestRcptValidation(t *testing.T) {
	st := testStore(t)

	replies := runSession(st, strings.Join([]string{
		"HELO x",
		"MAIL FROM:<a@x>",
		"RCPT TO:<stranger@x>",
		"RCPT TO:banana",
		"RCPT TO:<bob@x>",
		"RCPT TO:<alice@x>",
		"QUIT", "",
	}, "\r\n"))

	assert.Equal(t, "551", code(replies[3]), "unknown local user")
	assert.Equal(t, "501", code(replies[4]), "malformed forward-path")
	assert.Equal(t, "250", code(replies[5]))
	assert.Equal(t, "250", code(replies[6]))
}

func TestDataDelivery(t *testing.T) {
	st := testStore(t)
	body := "Subject: greetings\r\n\r\nhello bob\r\n"

	replies := runSession(st, strings.Join([]string{
		"HELO client.example.org",
		"MAIL FROM:<a@x>",
		"RCPT TO:<bob@x>",
		"DATA",
		body + ".",
		"QUIT", "",
	}, "\r\n"))

	assert.Equal(t, "354", code(replies[4]))
	assert.Equal(t, "250", code(replies[5]))
	assert.Equal(t, "221", code(replies[6]))

	drop, err := st.OpenDrop("bob")
	require.NoError(t, err)
	defer drop.Close()
	require.Equal(t, 1, drop.Count())

	e := drop.Entry(0)
	require.NotNil(t, e)
	rc, err := e.Open()
	require.NoError(t, err)
	stored, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, body, string(stored), "stored message equals the submitted body")
}

func TestDataToDuplicateRecipients(t *testing.T) {
	st := testStore(t)

	runSession(st, strings.Join([]string{
		"HELO x",
		"MAIL FROM:<a@x>",
		"RCPT TO:<bob@x>",
		"RCPT TO:<bob@x>",
		"DATA",
		"hi", ".",
		"QUIT", "",
	}, "\r\n"))

	drop, err := st.OpenDrop("bob")
	require.NoError(t, err)
	defer drop.Close()
	assert.Equal(t, 2, drop.Count(), "recipient list is not deduplicated")
}

func TestDataDisconnectDiscardsBody(t *testing.T) {
	st := testStore(t)

	// The stream ends before the terminating dot.
	runSession(st, "HELO x\r\nMAIL FROM:<a@x>\r\nRCPT TO:<bob@x>\r\nDATA\r\npartial body\r\n")

	drop, err := st.OpenDrop("bob")
	require.NoError(t, err)
	defer drop.Close()
	assert.Equal(t, 0, drop.Count(), "no delivery without the terminator")
}

func TestDataResetsTransaction(t *testing.T) {
	st := testStore(t)

	replies := runSession(st, strings.Join([]string{
		"HELO x",
		"MAIL FROM:<a@x>",
		"RCPT TO:<bob@x>",
		"DATA",
		"first", ".",
		"MAIL FROM:<a@x>",
		"RCPT TO:<bob@x>",
		"DATA",
		"second", ".",
		"QUIT", "",
	}, "\r\n"))

	assert.Equal(t, "250", code(replies[5]), "first delivery")
	assert.Equal(t, "250", code(replies[6]), "MAIL is legal again after DATA")
	assert.Equal(t, "250", code(replies[9]), "second delivery")

	drop, err := st.OpenDrop("bob")
	require.NoError(t, err)
	defer drop.Close()
	assert.Equal(t, 2, drop.Count())
}

func TestRset(t *testing.T) {
	st := testStore(t)

	replies := runSession(st, strings.Join([]string{
		"HELO x",
		"MAIL FROM:<a@x>",
		"RCPT TO:<bob@x>",
		"RSET",
		"DATA",
		"QUIT", "",
	}, "\r\n"))

	assert.Equal(t, "250", code(replies[4]), "RSET")
	assert.Equal(t, "503", code(replies[5]), "RSET cleared the recipients")
}

func TestVrfy(t *testing.T) {
	st := testStore(t)

	replies := runSession(st, strings.Join([]string{
		"VRFY bob",
		"VRFY bob@x",
		"VRFY <bob@x>",
		"VRFY stranger",
		"VRFY",
		"QUIT", "",
	}, "\r\n"))

	assert.Equal(t, "250 bob", replies[1])
	assert.Equal(t, "250 bob", replies[2])
	assert.Equal(t, "250 bob", replies[3])
	assert.Equal(t, "553", code(replies[4]))
	assert.Equal(t, "553", code(replies[5]))
}

func TestHeloClearsTransaction(t *testing.T) {
	st := testStore(t)

	replies := runSession(st, strings.Join([]string{
		"HELO x",
		"MAIL FROM:<a@x>",
		"RCPT TO:<bob@x>",
		"EHLO x",
		"DATA",
		"QUIT", "",
	}, "\r\n"))

	assert.Equal(t, "250", code(replies[4]), "re-greeting is allowed")
	assert.Equal(t, "503", code(replies[5]), "greeting dropped the transaction")
}

func TestNoopAndHelp(t *testing.T) {
	replies := runSession(testStore(t), "NOOP\r\nHELP\r\nQUIT\r\n")
	assert.Equal(t, "250", code(replies[1]))
	assert.Equal(t, "214", code(replies[2]))
}
