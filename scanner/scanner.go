// Package scanner is a small byte scanner used by the protocol
// argument parsers.
package scanner

import (
	"fmt"
)

type Scanner struct {
	str string
	pos int
	err error
}

func New(s string) *Scanner {
	return &Scanner{str: s}
}

func (s *Scanner) More() bool {
	if s.err != nil {
		return false
	}
	return s.pos < len(s.str)
}

// Next returns the current byte without consuming it.
func (s *Scanner) Next() byte {
	if !s.More() {
		return 0
	}
	return s.str[s.pos]
}

// Get consumes and returns the current byte.
func (s *Scanner) Get() byte {
	if !s.More() {
		return 0
	}
	ch := s.str[s.pos]
	s.pos++
	return ch
}

// SkipStri consumes the given string ignoring case.
func (s *Scanner) SkipStri(str string) bool {
	if s.err != nil {
		return false
	}
	for i := 0; i < len(str); i++ {
		if toUpper(s.Get()) != toUpper(str[i]) {
			s.err = fmt.Errorf("expected %q", str)
			return false
		}
	}
	return true
}

func (s *Scanner) Rest() string {
	return s.str[s.pos:]
}

func (s *Scanner) Expect(ch byte) bool {
	if s.err != nil {
		return false
	}
	n := s.Get()
	if n != ch {
		s.err = fmt.Errorf("expected %q, got %q", ch, n)
		return false
	}
	return true
}

func (s *Scanner) Err() error {
	return s.err
}

// ReadName consumes a run of letters and digits. Returns an empty
// string if the current byte is not a letter.
func (s *Scanner) ReadName() string {
	name := ""
	if !isAlpha(s.Next()) {
		return name
	}
	for isAlpha(s.Next()) || isDigit(s.Next()) {
		name += string(s.Get())
	}
	return name
}

// ReadAtom consumes a run of characters allowed in address local parts
// and hostnames: letters, digits and ".-_+".
func (s *Scanner) ReadAtom() string {
	atom := ""
	for {
		ch := s.Next()
		if isAlpha(ch) || isDigit(ch) || ch == '.' || ch == '-' || ch == '_' || ch == '+' {
			atom += string(s.Get())
			continue
		}
		return atom
	}
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
