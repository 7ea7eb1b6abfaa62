package smtp

import (
	"bytes"
	"strings"

	"github.com/akopan/maildrop/metrics"
)

// cmdFunc handles one command. Returning true ends the session.
type cmdFunc func(s *session, arg string) bool

// commands maps a keyword to the states it is legal in and its
// handler. QUIT is special-cased in the session loop.
var commands = map[string]struct {
	states state
	fn     cmdFunc
}{
	"HELO": {anyState, cmdHelo},
	"EHLO": {anyState, cmdHelo},
	"MAIL": {stateGreeted, cmdMail},
	"RCPT": {stateSender | stateRecipients, cmdRcpt},
	"DATA": {stateRecipients, cmdData},
	"RSET": {anyState, cmdRset},
	"VRFY": {anyState, cmdVrfy},
	"NOOP": {anyState, cmdNoop},
	"HELP": {anyState, cmdHelp},
}

/*
 * HELO/EHLO <host>
 *
 * Re-greeting is always allowed and abandons any transaction in
 * progress.
 */
func cmdHelo(s *session, arg string) bool {
	s.senderHost = arg
	s.clear()
	s.state = stateGreeted
	s.send(CodeOK, "%s", s.hostname)
	return false
}

/*
 * MAIL FROM:<local@domain>
 */
func cmdMail(s *session, arg string) bool {
	addr, err := parsePathArg(arg, "FROM")
	if err != nil {
		s.send(CodeArgumentError, "%s", err.Error())
		return false
	}
	s.sender = &addr
	s.state = stateSender
	s.send(CodeOK, "OK")
	return false
}

/*
 * RCPT TO:<local@domain>
 *
 * The local part must name a known user; recipients are kept in
 * arrival order and duplicates are not removed.
 */
func cmdRcpt(s *session, arg string) bool {
	addr, err := parsePathArg(arg, "TO")
	if err != nil {
		s.send(CodeArgumentError, "%s", err.Error())
		return false
	}
	if !s.store.ValidUser(addr.Local) {
		s.send(CodeUserNotLocal, "User not local")
		return false
	}
	s.recipients = append(s.recipients, addr.Local)
	s.state = stateRecipients
	s.send(CodeOK, "OK")
	return false
}

/*
 * DATA
 *
 * Collects the message body verbatim until the lone-dot line, then
 * delivers one message to every accumulated recipient. A disconnect
 * before the terminator discards the body.
 */
func cmdData(s *session, arg string) bool {
	s.send(CodeStartInput, "Start mail input; end with <CRLF>.<CRLF>")

	var body bytes.Buffer
	for {
		line, err := s.readLine()
		if err != nil {
			s.log.Debug("connection lost during DATA", "error", err)
			return true
		}
		if strings.TrimRight(line, "\r\n") == "." && strings.HasSuffix(line, "\n") {
			break
		}
		body.WriteString(line)
	}

	rcptCount := len(s.recipients)
	err := s.store.Deliver(body.Bytes(), s.recipients)
	s.clear()
	s.state = stateGreeted
	if err != nil {
		metrics.DeliveryFailuresTotal.Inc()
		s.log.Error("delivery failed", "error", err)
		s.send(CodeTransactionFailed, "Delivery failed: %s", err.Error())
		return false
	}
	metrics.DeliveriesTotal.Inc()
	s.log.Info("message delivered", "from", s.senderHost, "recipients", rcptCount)
	s.send(CodeOK, "OK")
	return false
}

/*
 * RSET
 *
 * Clears the transaction but does not stand in for a greeting.
 */
func cmdRset(s *session, arg string) bool {
	s.clear()
	if s.state != stateInitial {
		s.state = stateGreeted
	}
	s.send(CodeOK, "OK")
	return false
}

/*
 * VRFY <name or address>
 */
func cmdVrfy(s *session, arg string) bool {
	name := localName(arg)
	if name == "" || !s.store.ValidUser(name) {
		s.send(CodeUserAmbiguous, "User ambiguous")
		return false
	}
	s.send(CodeOK, "%s", name)
	return false
}

/*
 * NOOP
 */
func cmdNoop(s *session, arg string) bool {
	s.send(CodeOK, "OK")
	return false
}

/*
 * HELP
 */
func cmdHelp(s *session, arg string) bool {
	s.send(CodeHelp, "Commands: HELO EHLO MAIL RCPT DATA RSET VRFY NOOP HELP QUIT")
	return false
}
