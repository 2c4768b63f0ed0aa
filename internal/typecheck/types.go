// Package typecheck infers types for Karm programs.
//
// Instead of unification variables the checker carries explicit finite sets
// of candidate types and narrows them by intersection wherever the same
// identifier is used in more than one context. All sets are immutable
// values, so sibling subtrees are checked independently and merged
// afterwards without aliasing.
package typecheck

import (
	"sort"
	"strings"
)

// Type is one of the types a Karm expression can have.
type Type int

const (
	Int Type = iota
	Str
	Bool
	// Whatever is the fully unconstrained type, e.g. the result of calling
	// a function whose signature is not known.
	Whatever
	// Invalid marks an operator/operand mismatch.
	Invalid

	numTypes
)

var typeNames = [...]string{
	Int:      "Int",
	Str:      "Str",
	Bool:     "Bool",
	Whatever: "Whatever",
	Invalid:  "Invalid",
}

func (t Type) String() string {
	if t >= 0 && t < numTypes {
		return typeNames[t]
	}
	return "?"
}

// TypeSet is an immutable set of types.
type TypeSet uint8

// Frequently used sets.
var (
	EmptySet    TypeSet
	IntSet      = NewTypeSet(Int)
	StrSet      = NewTypeSet(Str)
	BoolSet     = NewTypeSet(Bool)
	ValueSet    = NewTypeSet(Int, Str, Bool)
	WhateverSet = NewTypeSet(Whatever)
	InvalidSet  = NewTypeSet(Invalid)
)

func NewTypeSet(types ...Type) TypeSet {
	var s TypeSet
	for _, t := range types {
		s |= 1 << uint(t)
	}
	return s
}

func (s TypeSet) Has(t Type) bool {
	return s&(1<<uint(t)) != 0
}

func (s TypeSet) IsEmpty() bool {
	return s == 0
}

func (s TypeSet) Len() int {
	n := 0
	for t := Type(0); t < numTypes; t++ {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Intersect returns the plain set intersection.
func (s TypeSet) Intersect(o TypeSet) TypeSet {
	return s & o
}

// Meet is Intersect except that {Whatever} stands for a type not known yet
// and leaves the other set as is. Only the signature-collecting pass of
// strict mode uses it.
func (s TypeSet) Meet(o TypeSet) TypeSet {
	switch {
	case s == WhateverSet:
		return o
	case o == WhateverSet:
		return s
	}
	return s & o
}

func (s TypeSet) SubsetOf(o TypeSet) bool {
	return s&^o == 0
}

// Types returns the members of s in declaration order.
func (s TypeSet) Types() []Type {
	var out []Type
	for t := Type(0); t < numTypes; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TypeSet) String() string {
	names := make([]string, 0, numTypes)
	for _, t := range s.Types() {
		names = append(names, t.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Assumption is one identifier's current candidate types.
type Assumption struct {
	Name       string
	Hypothesis TypeSet
}

func (a Assumption) String() string {
	return a.Name + ": " + a.Hypothesis.String()
}

// Gamma is the set of open hypotheses about the free identifiers of an
// expression, at most one per name. The zero value is the empty Gamma.
// Every operation returns a new Gamma and leaves its receiver untouched.
type Gamma struct {
	list []Assumption // sorted by name
}

// NewGamma builds a Gamma from assumptions. Later duplicates of a name
// are intersected with earlier ones.
func NewGamma(as ...Assumption) Gamma {
	g := Gamma{}
	for _, a := range as {
		if prev, ok := g.Lookup(a.Name); ok {
			a.Hypothesis = prev.Intersect(a.Hypothesis)
		}
		g = g.With(a.Name, a.Hypothesis)
	}
	return g
}

func (g Gamma) Len() int {
	return len(g.list)
}

func (g Gamma) search(name string) int {
	return sort.Search(len(g.list), func(i int) bool { return g.list[i].Name >= name })
}

// Lookup returns the hypothesis for name.
func (g Gamma) Lookup(name string) (TypeSet, bool) {
	i := g.search(name)
	if i < len(g.list) && g.list[i].Name == name {
		return g.list[i].Hypothesis, true
	}
	return EmptySet, false
}

// With returns a copy of g where name's hypothesis is set.
func (g Gamma) With(name string, hyp TypeSet) Gamma {
	i := g.search(name)
	if i < len(g.list) && g.list[i].Name == name {
		list := make([]Assumption, len(g.list))
		copy(list, g.list)
		list[i].Hypothesis = hyp
		return Gamma{list: list}
	}

	list := make([]Assumption, 0, len(g.list)+1)
	list = append(list, g.list[:i]...)
	list = append(list, Assumption{Name: name, Hypothesis: hyp})
	list = append(list, g.list[i:]...)
	return Gamma{list: list}
}

// Merge combines two Gammas. Names present in both get the intersection of
// their hypotheses. If an intersection is empty Merge reports the
// conflicting assumptions and ok is false.
func (g Gamma) Merge(o Gamma) (merged Gamma, left, right Assumption, ok bool) {
	list := make([]Assumption, 0, len(g.list)+len(o.list))
	i, j := 0, 0
	for i < len(g.list) && j < len(o.list) {
		a, b := g.list[i], o.list[j]
		switch {
		case a.Name < b.Name:
			list = append(list, a)
			i++
		case a.Name > b.Name:
			list = append(list, b)
			j++
		default:
			hyp := a.Hypothesis.Intersect(b.Hypothesis)
			if hyp.IsEmpty() {
				return Gamma{}, a, b, false
			}
			list = append(list, Assumption{Name: a.Name, Hypothesis: hyp})
			i++
			j++
		}
	}
	list = append(list, g.list[i:]...)
	list = append(list, o.list[j:]...)
	return Gamma{list: list}, Assumption{}, Assumption{}, true
}

// Assumptions returns a copy of the assumptions, sorted by name.
func (g Gamma) Assumptions() []Assumption {
	out := make([]Assumption, len(g.list))
	copy(out, g.list)
	return out
}

func (g Gamma) String() string {
	parts := make([]string, len(g.list))
	for i, a := range g.list {
		parts[i] = a.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// TypeScheme pairs an expression's Gamma with its own candidate types.
type TypeScheme struct {
	Gamma Gamma
	Types TypeSet

	// variable is set when the expression is a bare identifier, whose
	// candidate types are exactly its hypothesis in Gamma.
	variable string
}

// narrow restricts the scheme's variable, if any, to types.
func (s TypeScheme) narrow(types TypeSet) TypeScheme {
	if s.variable == "" {
		s.Types = types
		return s
	}
	hyp, _ := s.Gamma.Lookup(s.variable)
	hyp = hyp.Intersect(types)
	s.Gamma = s.Gamma.With(s.variable, hyp)
	s.Types = hyp
	return s
}

// refresh re-reads a variable's candidate types from g.
func (s TypeScheme) refresh(g Gamma) TypeScheme {
	if s.variable != "" {
		if hyp, ok := g.Lookup(s.variable); ok {
			s.Types = hyp
		}
	}
	return s
}
