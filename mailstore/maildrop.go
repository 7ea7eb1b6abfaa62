package mailstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Maildrop is a session-local, point-in-time view of one user's
// mailbox. Messages delivered after the snapshot was taken are not
// visible. Entries keep their position for the whole session no matter
// what gets marked deleted; deletions become permanent only in Close.
type Maildrop struct {
	entries []*Entry
	closed  bool
}

// Entry is one message in a maildrop snapshot.
type Entry struct {
	path    string
	name    string
	size    int64
	deleted bool
}

// OpenDrop lists the user's mailbox and returns a snapshot of its
// message files. A user without a mailbox directory gets an empty
// snapshot. Files that cannot be stat'ed are left out rather than
// failing the whole listing.
func (st *Store) OpenDrop(user string) (*Maildrop, error) {
	dir := filepath.Join(st.root, user)
	items, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return &Maildrop{}, nil
	}
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(items))
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), mailSuffix) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, &Entry{
			path: filepath.Join(dir, item.Name()),
			name: item.Name(),
			size: info.Size(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entryLess(entries[i].name, entries[j].name)
	})
	return &Maildrop{entries: entries}, nil
}

// entryLess orders delivery sequence numbers numerically so that
// 2.mail sorts before 10.mail; anything else falls back to name order.
func entryLess(a, b string) bool {
	na, aerr := strconv.Atoi(strings.TrimSuffix(a, mailSuffix))
	nb, berr := strconv.Atoi(strings.TrimSuffix(b, mailSuffix))
	if aerr == nil && berr == nil {
		return na < nb
	}
	return a < b
}

// Len returns the number of entries in the snapshot, marked-deleted
// ones included. Positions run from 0 to Len()-1 for the whole session.
func (d *Maildrop) Len() int {
	return len(d.entries)
}

// Count returns the number of entries not marked deleted.
func (d *Maildrop) Count() int {
	n := 0
	for _, e := range d.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}

// TotalSize returns the byte size of all entries not marked deleted.
func (d *Maildrop) TotalSize() int64 {
	var size int64
	for _, e := range d.entries {
		if !e.deleted {
			size += e.size
		}
	}
	return size
}

// Entry returns the entry at the zero-based position, or nil when the
// position is out of range or the entry there is marked deleted. The
// two cases are deliberately indistinguishable.
func (d *Maildrop) Entry(pos int) *Entry {
	if pos < 0 || pos >= len(d.entries) {
		return nil
	}
	e := d.entries[pos]
	if e.deleted {
		return nil
	}
	return e
}

// MarkDeleted marks the entry at the zero-based position deleted.
// Returns false when there is no entry there (or it is already marked).
func (d *Maildrop) MarkDeleted(pos int) bool {
	e := d.Entry(pos)
	if e == nil {
		return false
	}
	e.deleted = true
	return true
}

// Reset clears every deletion mark and returns how many were cleared.
func (d *Maildrop) Reset() int {
	n := 0
	for _, e := range d.entries {
		if e.deleted {
			e.deleted = false
			n++
		}
	}
	return n
}

// Close removes the files of all entries still marked deleted and
// discards the snapshot. It must run on every session exit path; a
// snapshot that is never closed commits nothing, which is exactly what
// an aborted session wants. Calling Close again is a no-op.
func (d *Maildrop) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	for _, e := range d.entries {
		if !e.deleted {
			continue
		}
		if err := os.Remove(e.path); err != nil {
			errs = append(errs, err)
		}
	}
	d.entries = nil
	return errors.Join(errs...)
}

// Size returns the message size in bytes.
func (e *Entry) Size() int64 {
	return e.size
}

// Name returns the message file name, unique within the mailbox.
func (e *Entry) Name() string {
	return e.name
}

// Open returns the message content for reading. The caller closes it.
func (e *Entry) Open() (io.ReadCloser, error) {
	return os.Open(e.path)
}
