// Package discovery re-finds a dispatched workflow run by its correlation
// token. GitHub exposes no native slot for a caller-supplied correlation id
// on a manual dispatch, so the token is smuggled into the run's title or the
// triggering commit message and matched back out heuristically.
package discovery

import (
	"strings"

	"github.com/runrelay/runrelay/internal/gh"
)

// Matcher decides whether a single run corresponds to a correlation token.
// Injectable so the heuristic can be replaced if GitHub ever exposes a
// native correlation field.
type Matcher interface {
	Matches(run gh.Run, token string) bool
}

// SubstringMatcher is the default heuristic: case-sensitive, exact substring
// containment of the token in the run title or the head-commit message. No
// normalization.
type SubstringMatcher struct{}

func (SubstringMatcher) Matches(run gh.Run, token string) bool {
	if token == "" {
		return false
	}
	return strings.Contains(run.Title, token) || strings.Contains(run.CommitMessage, token)
}

// Engine scans candidate runs for a token match.
type Engine struct {
	matcher Matcher
}

func NewEngine(m Matcher) *Engine {
	if m == nil {
		m = SubstringMatcher{}
	}
	return &Engine{matcher: m}
}

// Match returns the first candidate (in the given order, which is GitHub's
// newest-first listing order) matching the token, or nil when none does.
// Multiple matching runs are resolved silently by first match.
func (e *Engine) Match(candidates []gh.Run, token string) *gh.Run {
	for i := range candidates {
		if e.matcher.Matches(candidates[i], token) {
			return &candidates[i]
		}
	}
	return nil
}
