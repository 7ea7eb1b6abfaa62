// Package smtp implements the submission side of the mail server: an
// SMTP session over one connection, delivering through the mailbox
// store.
package smtp

import (
	"io"
	"log/slog"

	"github.com/akopan/maildrop/mailstore"
	"github.com/akopan/maildrop/metrics"
)

// Reply codes used by the session.
const (
	CodeReady             = 220
	CodeClosing           = 221
	CodeOK                = 250
	CodeStartInput        = 354
	CodeUnrecognized      = 500
	CodeArgumentError     = 501
	CodeBadSequence       = 503
	CodeHelp              = 214
	CodeUserNotLocal      = 551
	CodeUserAmbiguous     = 553
	CodeTransactionFailed = 554
)

// Session states. A command is legal only in the states its table
// entry lists.
type state int

const (
	stateInitial state = 1 << iota
	stateGreeted
	stateSender
	stateRecipients
)

const anyState = stateInitial | stateGreeted | stateSender | stateRecipients

type session struct {
	*readWriter
	store    *mailstore.Store
	hostname string
	log      *slog.Logger

	state      state
	senderHost string
	sender     *Address
	recipients []string
}

// Process runs one submission session over the connection. It returns
// when the client quits or the connection fails.
func Process(conn io.ReadWriter, store *mailstore.Store, hostname string, logger *slog.Logger) {
	s := &session{
		readWriter: newReadWriter(conn),
		store:      store,
		hostname:   hostname,
		log:        logger,
		state:      stateInitial,
	}

	s.send(CodeReady, "%s Simple Mail Transfer Service ready", hostname)
	for {
		line, err := s.readLine()
		if err != nil {
			if err != io.EOF {
				logger.Error("read failed", "error", err)
			}
			return
		}
		logger.Debug("command", "line", line)

		cmd, err := parseCommand(line)
		if err != nil {
			s.send(CodeUnrecognized, "%s", err.Error())
			continue
		}
		if cmd.Name == "QUIT" {
			metrics.CommandsTotal.WithLabelValues("smtp", cmd.Name).Inc()
			s.send(CodeClosing, "%s Service closing transmission channel", hostname)
			return
		}

		sc, ok := commands[cmd.Name]
		if !ok {
			s.send(CodeUnrecognized, "Unrecognized command")
			continue
		}
		metrics.CommandsTotal.WithLabelValues("smtp", cmd.Name).Inc()
		if sc.states&s.state == 0 {
			s.send(CodeBadSequence, "Bad sequence of commands")
			continue
		}
		if done := sc.fn(s, cmd.Arg); done {
			return
		}
	}
}

// clear drops the in-progress transaction: sender and recipients.
func (s *session) clear() {
	s.sender = nil
	s.recipients = nil
}
