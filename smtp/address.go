package smtp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akopan/maildrop/scanner"
)

// Address is a parsed local@domain endpoint.
type Address struct {
	Local  string
	Domain string
}

func (a Address) String() string {
	return a.Local + "@" + a.Domain
}

// parsePathArg parses a MAIL/RCPT argument of the form
// "FROM:<local@domain>" or "TO:<local@domain>". The keyword match
// ignores case and spaces are tolerated after the colon.
func parsePathArg(arg, keyword string) (Address, error) {
	r := scanner.New(strings.TrimSpace(arg))
	if !r.SkipStri(keyword + ":") {
		return Address{}, fmt.Errorf("the format is: %s:<address>", keyword)
	}
	for r.Next() == ' ' {
		r.Get()
	}
	return parseAngleAddr(r)
}

// parseAngleAddr reads "<local@domain>" from the scanner.
func parseAngleAddr(r *scanner.Scanner) (Address, error) {
	if !r.Expect('<') {
		return Address{}, errors.New("malformed address")
	}
	local := r.ReadAtom()
	if local == "" || !r.Expect('@') {
		return Address{}, errors.New("malformed address")
	}
	domain := r.ReadAtom()
	if domain == "" || !r.Expect('>') {
		return Address{}, errors.New("malformed address")
	}
	return Address{local, domain}, nil
}

// localName extracts the username a VRFY argument refers to: a bare
// name, a local@domain address, or either wrapped in angle brackets.
func localName(arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "<") {
		addr, err := parseAngleAddr(scanner.New(arg))
		if err != nil {
			return ""
		}
		return addr.Local
	}
	if at := strings.Index(arg, "@"); at >= 0 {
		return arg[:at]
	}
	return arg
}
