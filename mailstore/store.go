// Package mailstore keeps mail on disk, one directory per user and one
// file per message, and checks credentials against a flat users file.
// All coordination between concurrent sessions happens through the
// filesystem: there is no shared in-memory state.
package mailstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
)

const mailSuffix = ".mail"
const spoolDir = ".spool"

// Store is a handle to the mail root directory and the users file.
type Store struct {
	root      string
	usersPath string
}

// Open creates the mail root directory if needed and returns a store
// handle. The users file is not read here; it is re-read on every
// credential check.
func Open(root, usersPath string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("mail root: %w", err)
	}
	return &Store{root: root, usersPath: usersPath}, nil
}

// Deliver saves one message for every recipient. The body is written to
// a spool file once and hard-linked into each recipient's mailbox, so
// the mail root and the spool must live on the same filesystem.
// Delivery is best-effort per recipient: a failing recipient does not
// undo deliveries already made, and all failures are reported joined.
func (st *Store) Deliver(body []byte, recipients []string) error {
	spool := filepath.Join(st.root, spoolDir)
	if err := os.MkdirAll(spool, 0755); err != nil {
		return fmt.Errorf("spool dir: %w", err)
	}
	base := filepath.Join(spool, ulid.Make().String())
	if err := os.WriteFile(base, body, 0600); err != nil {
		return fmt.Errorf("spool file: %w", err)
	}
	defer os.Remove(base)

	var errs []error
	for _, rcpt := range recipients {
		if err := st.linkInto(base, rcpt); err != nil {
			errs = append(errs, fmt.Errorf("deliver to %s: %w", rcpt, err))
		}
	}
	return errors.Join(errs...)
}

// linkInto links the spool file into the user's mailbox under the first
// free sequence number: 0.mail, 1.mail and so on. Probing past EEXIST
// means two concurrent deliveries never overwrite each other and
// delivery never fails just because a number is taken.
func (st *Store) linkInto(base, user string) error {
	dir := filepath.Join(st.root, user)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for seq := 0; ; seq++ {
		name := filepath.Join(dir, fmt.Sprintf("%d%s", seq, mailSuffix))
		err := os.Link(base, name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
}
