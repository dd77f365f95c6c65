// Package locality decides which operational site an invoice, movement or
// animal record belongs to. Resolution is an ordered chain of named strategies;
// the first strategy that answers wins.
package locality

import (
	"strings"
)

// Subject carries the fields the strategies look at.
type Subject struct {
	DocumentIDs      []string
	LocalityTag      string
	TaxIDs           []string
	CounterpartyName string
}

// Site is one operational locality and what identifies it.
type Site struct {
	Name          string
	TaxIDs        []string
	NameFragments []string
}

// Exception pins a document to a locality regardless of any other evidence.
type Exception struct {
	DocumentID string
	Locality   string
}

// Strategy is one link of the resolution chain.
type Strategy interface {
	Name() string
	Resolve(s Subject) (string, bool)
}

// Resolution is the answer of the chain and which strategy produced it.
type Resolution struct {
	Locality string
	Strategy string
}

// Resolver runs its strategies in order.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds a resolver from an explicit chain.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: append([]Strategy(nil), strategies...)}
}

// NewDefaultResolver builds the standard chain: explicit tag, exception list,
// tax identifier, name fragment and, when fuzzyRatio > 0, fuzzy name.
func NewDefaultResolver(sites []Site, exceptions []Exception, fuzzyRatio float64) *Resolver {
	chain := []Strategy{
		NewExplicitTag(sites),
		NewExceptionList(exceptions),
		NewTaxID(sites),
		NewNameFragment(sites),
	}
	if fuzzyRatio > 0 {
		chain = append(chain, NewFuzzyName(sites, fuzzyRatio))
	}
	return NewResolver(chain...)
}

// Resolve returns the first answer of the chain, or false when nothing matched.
func (r *Resolver) Resolve(s Subject) (Resolution, bool) {
	for _, st := range r.strategies {
		if loc, ok := st.Resolve(s); ok {
			return Resolution{Locality: loc, Strategy: st.Name()}, true
		}
	}
	return Resolution{}, false
}

// Strategies returns the names of the chain in order.
func (r *Resolver) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for _, st := range r.strategies {
		names = append(names, st.Name())
	}
	return names
}

func documentKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
