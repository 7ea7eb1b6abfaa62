package mailstore

import (
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ValidUser reports whether the username appears in the users file.
// The comparison ignores case.
func (st *Store) ValidUser(name string) bool {
	_, ok := st.lookupPassword(name)
	return ok
}

// Auth reports whether the username and password match a users file
// entry. The username comparison ignores case, the password comparison
// does not. A stored password of bcrypt shape is compared as a hash.
func (st *Store) Auth(name, password string) bool {
	stored, ok := st.lookupPassword(name)
	if !ok {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored == password
}

// lookupPassword reads the users file and returns the password field of
// the first entry matching the username. The file is a flat list of
// whitespace-separated (user, password) pairs and is read in full on
// every call so edits take effect without a restart.
func (st *Store) lookupPassword(name string) (string, bool) {
	data, err := os.ReadFile(st.usersPath)
	if err != nil {
		return "", false
	}
	fields := strings.Fields(string(data))
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.EqualFold(fields[i], name) {
			return fields[i+1], true
		}
	}
	return "", false
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}
