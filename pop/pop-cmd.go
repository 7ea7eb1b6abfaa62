package pop

import (
	"fmt"
	"io"
	"strings"
)

type cmdFunc func(s *session, arg string)

// commands maps a keyword to the states it is legal in and its
// handler. QUIT is special-cased in the session loop.
var commands = map[string]struct {
	states state
	fn     cmdFunc
}{
	"USER": {stateUnauthenticated, cmdUser},
	"PASS": {stateUserProvided, cmdPass},
	"STAT": {stateAuthenticated, cmdStat},
	"LIST": {stateAuthenticated, cmdList},
	"RETR": {stateAuthenticated, cmdRetr},
	"DELE": {stateAuthenticated, cmdDele},
	"RSET": {stateAuthenticated, cmdRset},
	"UIDL": {stateAuthenticated, cmdUidl},
	"TOP":  {stateAuthenticated, cmdTop},
	"NOOP": {anyState, cmdNoop},
}

/*
 * USER <name>
 */
func cmdUser(s *session, arg string) {
	if arg == "" {
		s.err("empty username")
		return
	}
	if !s.store.ValidUser(arg) {
		s.err("no such user")
		return
	}
	s.userName = arg
	s.state = stateUserProvided
	s.ok("")
}

/*
 * PASS <key>
 */
func cmdPass(s *session, arg string) {
	if !s.store.Auth(s.userName, arg) {
		s.userName = ""
		s.state = stateUnauthenticated
		s.err("auth failed")
		return
	}

	drop, err := s.store.OpenDrop(s.userName)
	if err != nil {
		s.log.Error("maildrop open failed", "user", s.userName, "error", err)
		s.userName = ""
		s.state = stateUnauthenticated
		s.err("maildrop unavailable")
		return
	}
	s.drop = drop
	s.state = stateAuthenticated
	s.ok("maildrop locked and ready")
}

/*
 * STAT
 */
func cmdStat(s *session, arg string) {
	s.ok("%d %d", s.drop.Count(), s.drop.TotalSize())
}

/*
 * LIST [<pos>]
 */
func cmdList(s *session, arg string) {
	if arg == "" {
		s.ok("%d messages (%d octets)", s.drop.Count(), s.drop.TotalSize())
		for i := 0; i < s.drop.Len(); i++ {
			if e := s.drop.Entry(i); e != nil {
				s.send("%d %d", i+1, e.Size())
			}
		}
		s.send(".")
		return
	}

	pos, err := parsePos(arg)
	if err != nil {
		s.err(err.Error())
		return
	}
	e := s.drop.Entry(pos - 1)
	if e == nil {
		s.err("no such message")
		return
	}
	s.ok("%d %d", pos, e.Size())
}

/*
 * RETR <pos>
 */
func cmdRetr(s *session, arg string) {
	pos, err := parsePos(arg)
	if err != nil {
		s.err(err.Error())
		return
	}
	e := s.drop.Entry(pos - 1)
	if e == nil {
		s.err("no such message")
		return
	}

	content, err := e.Open()
	if err != nil {
		s.log.Error("message open failed", "name", e.Name(), "error", err)
		s.err("failed to read message")
		return
	}
	defer content.Close()

	s.ok("%d octets", e.Size())
	if err := s.sendData(content); err != nil {
		s.log.Error("retr failed", "name", e.Name(), "error", err)
	}
}

/*
 * DELE <pos>
 */
func cmdDele(s *session, arg string) {
	pos, err := parsePos(arg)
	if err != nil {
		s.err(err.Error())
		return
	}
	if !s.drop.MarkDeleted(pos - 1) {
		s.err("no such message")
		return
	}
	s.ok("message %d deleted", pos)
}

/*
 * RSET
 */
func cmdRset(s *session, arg string) {
	n := s.drop.Reset()
	s.ok("%d messages restored", n)
}

/*
 * NOOP
 */
func cmdNoop(s *session, arg string) {
	s.ok("")
}

/*
 * UIDL [<pos>]
 */
func cmdUidl(s *session, arg string) {
	if arg == "" {
		s.ok("")
		for i := 0; i < s.drop.Len(); i++ {
			if e := s.drop.Entry(i); e != nil {
				s.send("%d %s", i+1, e.Name())
			}
		}
		s.send(".")
		return
	}

	pos, err := parsePos(arg)
	if err != nil {
		s.err(err.Error())
		return
	}
	e := s.drop.Entry(pos - 1)
	if e == nil {
		s.err("no such message")
		return
	}
	s.ok("%d %s", pos, e.Name())
}

/*
 * TOP <pos> <n>
 */
func cmdTop(s *session, arg string) {
	var pos, n int
	if _, err := fmt.Sscanf(arg, "%d %d", &pos, &n); err != nil || pos < 1 || n < 0 {
		s.err("usage: TOP <msg> <n>")
		return
	}
	e := s.drop.Entry(pos - 1)
	if e == nil {
		s.err("no such message")
		return
	}

	content, err := e.Open()
	if err != nil {
		s.err("failed to read message")
		return
	}
	text, err := io.ReadAll(content)
	content.Close()
	if err != nil {
		s.err("failed to read message")
		return
	}

	lines := strings.Split(string(text), "\n")
	s.ok("")

	// Headers go out in full, up to the first blank line.
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		s.sendDataLine(line)
		if line == "" {
			break
		}
	}

	// Then at most n lines of the body.
	i++
	for ; i < len(lines) && n > 0; i++ {
		s.sendDataLine(strings.TrimRight(lines[i], "\r"))
		n--
	}
	s.send(".")
}
