// Package highlight maintains the keyword set used to flag interesting
// messages on the console.
package highlight

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// ErrBadKeyword marks a keyword spec that cannot be used, either because
// it is not in /pattern/flags form or because the pattern does not compile.
var ErrBadKeyword = errors.New("bad highlight keyword")

// keywordShape validates the /pattern/flags form. The pattern group is
// greedy so slashes inside the pattern stay with the pattern.
var keywordShape = regexp.MustCompile(`^/(.+)/([gimuy]*)$`)

type keyword struct {
	spec string
	re   *regexp.Regexp
}

// Matcher holds a compiled keyword set. All methods are safe for
// concurrent use; matching takes a read lock so config reloads never
// block the render path for long.
type Matcher struct {
	mu       sync.RWMutex
	keywords []keyword
}

// New compiles the given keyword specs into a Matcher. The first bad spec
// aborts construction.
func New(specs ...string) (*Matcher, error) {
	m := &Matcher{}
	for _, spec := range specs {
		if err := m.AddKeyword(spec); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// compile parses and compiles a single keyword spec. The i and m flags map
// onto their native equivalents; g, u and y only affect iteration position
// or are already the default here, so they are accepted and discarded.
func compile(spec string) (keyword, error) {
	groups := keywordShape.FindStringSubmatch(spec)
	if groups == nil {
		return keyword{}, fmt.Errorf("%w: %q must be in /pattern/flags form", ErrBadKeyword, spec)
	}

	pattern, flags := groups[1], groups[2]

	prefix := ""
	for _, f := range flags {
		switch f {
		case 'i':
			prefix += "(?i)"
		case 'm':
			prefix += "(?m)"
		}
	}

	re, err := regexp.Compile(prefix + pattern)
	if err != nil {
		return keyword{}, fmt.Errorf("%w: %q compile failed: %v", ErrBadKeyword, spec, err)
	}

	return keyword{spec: spec, re: re}, nil
}

// AddKeyword compiles and adds one keyword. On error the set is unchanged.
// Adding a spec that is already present is a no-op.
func (m *Matcher) AddKeyword(spec string) error {
	kw, err := compile(spec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.keywords {
		if existing.spec == spec {
			return nil
		}
	}
	m.keywords = append(m.keywords, kw)
	return nil
}

// RemoveKeyword removes a keyword by its original spec string. Returns
// true when something was removed.
func (m *Matcher) RemoveKeyword(spec string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, kw := range m.keywords {
		if kw.spec == spec {
			m.keywords = append(m.keywords[:i], m.keywords[i+1:]...)
			return true
		}
	}
	return false
}

// SetKeywords replaces the whole set. All specs are compiled before the
// swap, so a bad spec leaves the current set untouched.
func (m *Matcher) SetKeywords(specs []string) error {
	compiled := make([]keyword, 0, len(specs))
	for _, spec := range specs {
		kw, err := compile(spec)
		if err != nil {
			return err
		}
		compiled = append(compiled, kw)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywords = compiled
	return nil
}

// Keywords returns the current specs in insertion order.
func (m *Matcher) Keywords() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	specs := make([]string, len(m.keywords))
	for i, kw := range m.keywords {
		specs[i] = kw.spec
	}
	return specs
}

// Len returns the number of keywords in the set.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keywords)
}

// MatchesAny reports whether any keyword matches the text. The first hit
// wins; an empty set matches nothing.
func (m *Matcher) MatchesAny(text string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, kw := range m.keywords {
		if kw.re.MatchString(text) {
			return true
		}
	}
	return false
}
