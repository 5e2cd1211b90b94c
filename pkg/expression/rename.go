package expression

import (
	"strings"

	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
)

// Rename replaces every reference to from in src by to, leaving calls,
// strings and the surrounding text untouched. References match
// case-insensitively. It reports whether anything changed.
func Rename(src, from, to string) (string, bool, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return src, false, err
	}

	key := identity.Normalize(from)
	var b strings.Builder
	last, changed := 0, false
	for i, tok := range tokens {
		if tok.Type != TokenIdentifier || isCall(tokens, i) || identity.Normalize(tok.Value) != key {
			continue
		}
		b.WriteString(src[last:tok.Pos])
		b.WriteString(to)
		last = tok.Pos + len(tok.Text)
		changed = true
	}
	if !changed {
		return src, false, nil
	}
	b.WriteString(src[last:])
	return b.String(), true, nil
}
