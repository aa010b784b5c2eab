// Package experimental holds entry points that are not yet part of the stable rx API.
package experimental

import (
	"fmt"

	"github.com/wasilibs/go-rx"
)

// Set is a compiled collection of patterns that can be searched for together. The
// patterns share one backend and one set of options. A Set is safe for concurrent use.
type Set struct {
	patterns []*rx.Pattern
}

// CompileSet compiles each of exprs for backend. It fails on the first pattern that
// does not compile, naming its index.
func CompileSet(exprs []string, backend rx.Backend, opts ...rx.Option) (*Set, error) {
	set := &Set{patterns: make([]*rx.Pattern, 0, len(exprs))}
	for i, expr := range exprs {
		p, err := rx.Compile(expr, backend, opts...)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		set.patterns = append(set.patterns, p)
	}
	return set, nil
}

// Len returns the number of patterns in the set.
func (set *Set) Len() int {
	return len(set.patterns)
}

// Pattern returns the i'th pattern of the set.
func (set *Set) Pattern(i int) *rx.Pattern {
	return set.patterns[i]
}

// FindAllString returns the indices, in increasing order, of the patterns that match
// s. If n >= 0, it returns at most n indices; otherwise, it returns all of them.
func (set *Set) FindAllString(s string, n int) []int {
	if n == 0 {
		return nil
	}
	var matches []int
	for i, p := range set.patterns {
		if !p.Matches(s) {
			continue
		}
		matches = append(matches, i)
		if len(matches) == n {
			break
		}
	}
	return matches
}

// FindAll is like FindAllString but searches b.
func (set *Set) FindAll(b []byte, n int) []int {
	return set.FindAllString(string(b), n)
}
