package rx

import (
	"fmt"
	"iter"
	"strconv"
)

// Iter walks the matches of a pattern in a text, scanner style:
//
//	it := p.Gmatch(text)
//	for it.Next() {
//		fmt.Println(it.Match())
//	}
//
// Matches never overlap. An Iter cannot be rewound; call Gmatch again for a fresh one.
type Iter struct {
	m       *Match
	started bool
}

// Gmatch returns an iterator over the matches of the pattern in text.
func (p *Pattern) Gmatch(text string) *Iter {
	return &Iter{m: p.Match(text)}
}

// Next advances to the next match and reports whether there is one.
func (it *Iter) Next() bool {
	if it.started {
		it.m.Next()
	}
	it.started = true
	return it.m.matched
}

// Match returns the cursor positioned on the current match. It is only valid until the
// following call to Next.
func (it *Iter) Match() *Match {
	return it.m
}

// Err returns the compile error of the pattern if it is invalid.
func (it *Iter) Err() error {
	return it.m.Err()
}

// All returns the remaining matches as a sequence. Each yielded Match is a snapshot
// that stays valid after iteration continues.
func (it *Iter) All() iter.Seq[*Match] {
	return func(yield func(*Match) bool) {
		for it.Next() {
			if !yield(it.m.clone()) {
				return
			}
		}
	}
}

// All is shorthand for p.Gmatch(text).All().
func (p *Pattern) All(text string) iter.Seq[*Match] {
	return p.Gmatch(text).All()
}

// AppendTo appends the text of each remaining match to dst and returns the extended
// slice.
func (it *Iter) AppendTo(dst []string) []string {
	for it.Next() {
		dst = append(dst, it.m.String())
	}
	return dst
}

// AppendInts appends each remaining match, parsed as a decimal integer, to dst. It
// stops at the first match that is not an integer.
func (it *Iter) AppendInts(dst []int) ([]int, error) {
	if err := it.Err(); err != nil {
		return dst, err
	}
	for it.Next() {
		s := it.m.String()
		v, err := strconv.Atoi(s)
		if err != nil {
			return dst, fmt.Errorf("rx: match %q at offset %d is not an integer: %w", s, it.m.loc[0], err)
		}
		dst = append(dst, v)
	}
	return dst, nil
}

// FillMap stores group 2 of each remaining match in dst under the key of group 1. Later
// matches overwrite earlier ones with the same key.
func (it *Iter) FillMap(dst map[string]string) error {
	if err := it.Err(); err != nil {
		return err
	}
	if it.m.p.NumGroups() < 2 {
		return ErrTooFewGroups
	}
	for it.Next() {
		dst[it.m.MustGroup(1)] = it.m.MustGroup(2)
	}
	return nil
}
