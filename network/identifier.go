package network

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Characters processor identifiers may contain in addition to the ones
// allowed for every identifier.
const processorIdentifierExtra = " ()=&"

// ValidateIdentifier checks that id is non-empty and made of ASCII letters,
// digits, '_', '-' and the characters in extra.
func ValidateIdentifier(id, kind, extra string) error {
	if id == "" {
		return fmt.Errorf("%w: %s identifier cannot be empty", ErrInvalidIdentifier, kind)
	}
	for _, r := range id {
		if isIdentifierRune(r) || strings.ContainsRune(extra, r) {
			continue
		}
		return fmt.Errorf("%w: %s identifier %q contains %q", ErrInvalidIdentifier, kind, id, r)
	}
	return nil
}

func isIdentifierRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-'
}

// StripIdentifier normalizes id for uniqueness checks: characters that are
// not letters, digits or '_' are dropped and a leading digit gets a '_'
// prefix. "Scale 2" and "Scale2" strip to the same value.
func StripIdentifier(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r != '-' && isIdentifierRune(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// IdentifierRegistry hands out unique processor identifiers. It is safe for
// concurrent use.
type IdentifierRegistry struct {
	mu   sync.Mutex
	used map[string]struct{}
}

// DefaultIdentifiers is the process-wide registry used by networks that are
// not given one explicitly.
var DefaultIdentifiers = NewIdentifierRegistry()

func NewIdentifierRegistry() *IdentifierRegistry {
	return &IdentifierRegistry{used: make(map[string]struct{})}
}

// Reserve registers and returns a unique identifier derived from id. If id
// is taken, the smallest free numeric suffix is appended: "Scale",
// "Scale 2", "Scale 3", ... An identifier already ending in " N" searches
// from N.
func (r *IdentifierRegistry) Reserve(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	base, candidate, i := id, id, 2
	if head, tail, ok := cutLast(id, " "); ok && isDigits(tail) {
		if n, err := strconv.Atoi(tail); err == nil {
			base, i = head, n
		}
	}

	for {
		if _, taken := r.used[StripIdentifier(candidate)]; !taken {
			break
		}
		candidate = base + " " + strconv.Itoa(i)
		i++
	}
	r.used[StripIdentifier(candidate)] = struct{}{}
	return candidate
}

// Release frees an identifier returned by Reserve.
func (r *IdentifierRegistry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.used, StripIdentifier(id))
}

// InUse reports whether id, after stripping, is registered.
func (r *IdentifierRegistry) InUse(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.used[StripIdentifier(id)]
	return ok
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
