package smtp

import (
	"errors"
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
