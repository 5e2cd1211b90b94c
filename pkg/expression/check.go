package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
)

// Function is a checked node function.
type Function struct {
	Source     string
	Tokens     []Token
	References []string // allowed identifiers the function uses, as written in the allow-list
}

// Check verifies that src only calls built-in functions and only refers to
// identifiers in allowed. Identifiers are compared case-insensitively.
func Check(src string, allowed []string) (*Function, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmpty
	}

	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	if err := checkParens(tokens); err != nil {
		return nil, err
	}

	idx := index(allowed)
	var errs []error
	var refs []string
	for i, tok := range tokens {
		if tok.Type != TokenIdentifier {
			continue
		}
		if ref, ok := resolve(tokens, i, idx); ok {
			if ref != "" {
				refs = appendUnique(refs, ref)
			}
			continue
		}
		errs = append(errs, unknown(tokens, i, allowed))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Function{Source: src, Tokens: tokens, References: refs}, nil
}

// Repair is the advisory form of Check. Unknown identifiers and calls to
// unknown functions become 0, invalid characters are dropped and
// unbalanced parentheses are closed or removed. The returned string always
// passes Check against the same allow-list, unless it is empty.
func Repair(src string, allowed []string) (string, []Warning) {
	lx := newLenientLexer(src)
	tokens, _ := lx.Tokenize()

	var warnings []Warning
	for _, bad := range lx.Skipped() {
		warnings = append(warnings, Warning{
			Token:   bad.Text,
			Column:  bad.Column,
			Message: fmt.Sprintf("dropped invalid text %q at column %d", bad.Text, bad.Column),
		})
	}

	idx := index(allowed)
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Type != TokenIdentifier {
			out = append(out, tok)
			continue
		}
		if _, ok := resolve(tokens, i, idx); ok {
			out = append(out, tok)
			continue
		}

		te := unknown(tokens, i, allowed)
		msg := te.Error() + ", replaced with 0"
		warnings = append(warnings, Warning{Token: tok.Text, Column: tok.Column, Replacement: "0", Message: msg})
		out = append(out, Token{Type: TokenNumber, Value: "0", Text: "0", Pos: tok.Pos, Column: tok.Column})

		if te.Function {
			i = skipCall(tokens, i+1)
		}
	}

	out, parenWarnings := balance(out)
	warnings = append(warnings, parenWarnings...)
	return Render(out), warnings
}

// Render joins tokens back into a function string.
func Render(tokens []Token) string {
	var b strings.Builder
	var prev TokenType = TokenEOF
	for _, tok := range tokens {
		if tok.Type == TokenEOF {
			break
		}
		if prev != TokenEOF {
			switch {
			case prev.wordLike() && tok.Type.wordLike():
				b.WriteByte(' ')
			case prev == TokenComma:
				b.WriteByte(' ')
			case isBinary(tok.Type) || isBinary(prev):
				b.WriteByte(' ')
			}
		}
		b.WriteString(tok.Text)
		prev = tok.Type
	}
	return b.String()
}

func isBinary(t TokenType) bool {
	switch t {
	case TokenEquals, TokenNotEquals, TokenLessEqual, TokenGreaterEqual,
		TokenAnd, TokenOr, TokenQuestion, TokenColon:
		return true
	}
	return false
}

// resolve classifies the identifier at tokens[i]. It returns the allow-list
// spelling for references, "" for built-ins and constants, and false when
// the identifier is not permitted.
func resolve(tokens []Token, i int, idx map[string]string) (string, bool) {
	name := tokens[i].Value
	if isCall(tokens, i) {
		if IsBuiltin(name) {
			return "", true
		}
		return "", false
	}
	if ref, ok := idx[identity.Normalize(name)]; ok {
		return ref, true
	}
	if isConstant(name) {
		return "", true
	}
	return "", false
}

func unknown(tokens []Token, i int, allowed []string) *TokenError {
	tok := tokens[i]
	te := &TokenError{Token: tok.Text, Column: tok.Column, Function: isCall(tokens, i)}
	if te.Function {
		te.Suggestion = identity.Closest(tok.Value, Builtins())
	} else {
		te.Suggestion = identity.Closest(tok.Value, allowed)
	}
	return te
}

func isCall(tokens []Token, i int) bool {
	return i+1 < len(tokens) && tokens[i+1].Type == TokenLeftParen
}

// skipCall returns the index of the parenthesis closing the call whose
// opening parenthesis is at open. Unclosed calls run to the end.
func skipCall(tokens []Token, open int) int {
	depth := 0
	for j := open; j < len(tokens); j++ {
		switch tokens[j].Type {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
			if depth == 0 {
				return j
			}
		case TokenEOF:
			return j - 1
		}
	}
	return len(tokens) - 1
}

func checkParens(tokens []Token) error {
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
			if depth < 0 {
				return fmt.Errorf("unmatched ')' at column %d: %w", tok.Column, ErrSyntax)
			}
		}
	}
	if depth > 0 {
		return fmt.Errorf("%d unclosed '(': %w", depth, ErrSyntax)
	}
	return nil
}

func balance(tokens []Token) ([]Token, []Warning) {
	var warnings []Warning
	out := make([]Token, 0, len(tokens))
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case TokenEOF:
			continue
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			if depth == 0 {
				warnings = append(warnings, Warning{
					Token:   ")",
					Column:  tok.Column,
					Message: fmt.Sprintf("removed unmatched ')' at column %d", tok.Column),
				})
				continue
			}
			depth--
		}
		out = append(out, tok)
	}
	for ; depth > 0; depth-- {
		out = append(out, Token{Type: TokenRightParen, Value: ")", Text: ")"})
		warnings = append(warnings, Warning{Token: "(", Replacement: ")", Message: "closed unbalanced '('"})
	}
	return out, warnings
}

func index(allowed []string) map[string]string {
	m := make(map[string]string, len(allowed))
	for _, a := range allowed {
		m[identity.Normalize(a)] = a
	}
	return m
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
