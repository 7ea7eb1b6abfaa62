// Package pop implements the retrieval side of the mail server: a POP3
// session over one connection, operating on one maildrop snapshot.
package pop

import (
	"io"
	"log/slog"

	"github.com/akopan/maildrop/mailstore"
	"github.com/akopan/maildrop/metrics"
)

// Session states. A command is legal only in the states its table
// entry lists.
type state int

const (
	stateUnauthenticated state = 1 << iota
	stateUserProvided
	stateAuthenticated
)

const anyState = stateUnauthenticated | stateUserProvided | stateAuthenticated

type session struct {
	*readWriter
	store    *mailstore.Store
	log      *slog.Logger
	state    state
	userName string
	drop     *mailstore.Maildrop
}

// Process runs one retrieval session over the connection. It returns
// when the client quits or the connection fails, and in either case the
// maildrop snapshot, if one was opened, is closed exactly once.
func Process(conn io.ReadWriter, store *mailstore.Store, logger *slog.Logger) {
	s := &session{
		readWriter: newReadWriter(conn),
		store:      store,
		log:        logger,
		state:      stateUnauthenticated,
	}
	defer s.teardown()

	s.ok("POP3 server ready")
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
			s.err(err.Error())
			continue
		}
		if cmd.Name == "QUIT" {
			metrics.CommandsTotal.WithLabelValues("pop", cmd.Name).Inc()
			s.quit()
			return
		}

		pc, ok := commands[cmd.Name]
		if !ok {
			s.err("unknown command")
			continue
		}
		metrics.CommandsTotal.WithLabelValues("pop", cmd.Name).Inc()
		if pc.states&s.state == 0 {
			s.err("command not allowed now")
			continue
		}
		pc.fn(s, cmd.Arg)
	}
}

// quit commits deletions by closing the snapshot, then confirms.
func (s *session) quit() {
	if s.drop != nil {
		err := s.drop.Close()
		s.drop = nil
		if err != nil {
			s.log.Error("commit failed", "error", err)
			s.err(err.Error())
			return
		}
	}
	s.ok("bye")
}

// teardown releases the snapshot on abnormal exit paths. A session
// that ends without QUIT must not commit its deletions, so the marks
// are reset before the close.
func (s *session) teardown() {
	if s.drop == nil {
		return
	}
	s.drop.Reset()
	if err := s.drop.Close(); err != nil {
		s.log.Error("maildrop close failed", "error", err)
	}
	s.drop = nil
}
