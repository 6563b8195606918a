package scope

import "github.com/standardbeagle/i18n-ls/internal/types"

type binding struct {
	region types.Span
	scope  types.Scope
}

// scopeStack holds every get_trans_fn binding seen in a file, each
// tagged with the lexical region it's valid in. There's no explicit
// push/pop walk over the tree — captures already carry their
// enclosing region — so "innermost wins" (spec.md §4.D step 1) is
// implemented as smallest-containing-region-wins at lookup time
// rather than as a literal stack discipline.
type scopeStack struct {
	bindings []binding
}

func newScopeStack() *scopeStack {
	return &scopeStack{}
}

func (s *scopeStack) push(region types.Span, sc types.Scope) {
	s.bindings = append(s.bindings, binding{region: region, scope: sc})
}

// lookup returns the innermost Scope bound to localName whose region
// contains callSpan, or false if none does.
func (s *scopeStack) lookup(callSpan types.Span, localName string) (*types.Scope, bool) {
	var best *types.Scope
	bestLen := -1
	for i := range s.bindings {
		b := &s.bindings[i]
		if b.scope.LocalName != localName {
			continue
		}
		if callSpan.Start >= b.region.Start && callSpan.End <= b.region.End {
			if bestLen == -1 || b.region.Len() < bestLen {
				best = &b.scope
				bestLen = b.region.Len()
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
