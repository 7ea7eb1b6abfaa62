package pop

import (
	"errors"
	"strconv"
	"strings"

	"github.com/akopan/maildrop/scanner"
)

// Command is one client request: an upper-cased keyword and the raw
// argument text after it.
type Command struct {
	Name string
	Arg  string
}

func parseCommand(line string) (*Command, error) {
	r := scanner.New(line)
	name := strings.ToUpper(r.ReadName())
	if name == "" {
		return nil, errors.New("command expected")
	}

	arg := ""
	if r.Next() == ' ' {
		r.Get()
		arg = strings.TrimRight(r.Rest(), "\r\n")
	} else if r.More() && r.Next() != '\r' && r.Next() != '\n' {
		return nil, errors.New("malformed command")
	}
	return &Command{name, arg}, nil
}

// parsePos converts a 1-based message position argument.
func parsePos(arg string) (int, error) {
	if arg == "" {
		return 0, errors.New("message number expected")
	}
	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 {
		return 0, errors.New("invalid message number")
	}
	return pos, nil
}
