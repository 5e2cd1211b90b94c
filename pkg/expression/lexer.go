package expression

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer tokenizes a node function string
type Lexer struct {
	input   string
	pos     int
	column  int
	lenient bool
	tokens  []Token
	skipped []Token
}

// NewLexer creates a lexer that fails on the first invalid character.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, column: 1}
}

// newLenientLexer creates a lexer that records invalid characters instead of failing.
func newLenientLexer(input string) *Lexer {
	return &Lexer{input: input, column: 1, lenient: true}
}

// Tokenize converts the input string into tokens, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.input) {
		if unicode.IsSpace(rune(l.input[l.pos])) {
			l.advance()
			continue
		}

		token, err := l.nextToken()
		if err != nil {
			if !l.lenient {
				return nil, err
			}
			l.skipped = append(l.skipped, token)
			continue
		}
		l.tokens = append(l.tokens, token)
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos, Column: l.column})
	return l.tokens, nil
}

// Skipped returns the invalid tokens a lenient lexer dropped.
func (l *Lexer) Skipped() []Token {
	return l.skipped
}

// nextToken reads the next token
func (l *Lexer) nextToken() (Token, error) {
	start, startCol := l.pos, l.column
	ch := l.peek()

	two := func(next byte, pair, single TokenType) Token {
		l.advance()
		if l.peek() == next {
			l.advance()
			return l.makeToken(pair, start, startCol)
		}
		return l.makeToken(single, start, startCol)
	}

	switch ch {
	case '(':
		l.advance()
		return l.makeToken(TokenLeftParen, start, startCol), nil
	case ')':
		l.advance()
		return l.makeToken(TokenRightParen, start, startCol), nil
	case ',':
		l.advance()
		return l.makeToken(TokenComma, start, startCol), nil
	case '+':
		l.advance()
		return l.makeToken(TokenPlus, start, startCol), nil
	case '-':
		l.advance()
		return l.makeToken(TokenMinus, start, startCol), nil
	case '*':
		l.advance()
		return l.makeToken(TokenStar, start, startCol), nil
	case '/':
		l.advance()
		return l.makeToken(TokenSlash, start, startCol), nil
	case '%':
		l.advance()
		return l.makeToken(TokenPercent, start, startCol), nil
	case '^':
		l.advance()
		return l.makeToken(TokenCaret, start, startCol), nil
	case '?':
		l.advance()
		return l.makeToken(TokenQuestion, start, startCol), nil
	case ':':
		l.advance()
		return l.makeToken(TokenColon, start, startCol), nil
	case '<':
		return two('=', TokenLessEqual, TokenLess), nil
	case '>':
		return two('=', TokenGreaterEqual, TokenGreater), nil
	case '!':
		return two('=', TokenNotEquals, TokenNot), nil
	case '=':
		if l.peekAhead(1) == '=' {
			l.advance()
			l.advance()
			return l.makeToken(TokenEquals, start, startCol), nil
		}
	case '&':
		if l.peekAhead(1) == '&' {
			l.advance()
			l.advance()
			return l.makeToken(TokenAnd, start, startCol), nil
		}
	case '|':
		if l.peekAhead(1) == '|' {
			l.advance()
			l.advance()
			return l.makeToken(TokenOr, start, startCol), nil
		}
	case '\'', '"':
		return l.readString()
	}

	if unicode.IsDigit(rune(ch)) || (ch == '.' && unicode.IsDigit(rune(l.peekAhead(1)))) {
		return l.readNumber(), nil
	}
	if unicode.IsLetter(rune(ch)) || ch == '_' {
		return l.readIdentifier(), nil
	}

	l.advance()
	bad := l.makeToken(TokenInvalid, start, startCol)
	return bad, fmt.Errorf("unexpected character '%c' at column %d: %w", ch, startCol, ErrSyntax)
}

// readIdentifier reads an identifier
func (l *Lexer) readIdentifier() Token {
	start, startCol := l.pos, l.column
	for l.pos < len(l.input) && (unicode.IsLetter(rune(l.input[l.pos])) || unicode.IsDigit(rune(l.input[l.pos])) || l.input[l.pos] == '_') {
		l.advance()
	}
	return l.makeToken(TokenIdentifier, start, startCol)
}

// readNumber reads a numeric literal, including an exponent
func (l *Lexer) readNumber() Token {
	start, startCol := l.pos, l.column
	for l.pos < len(l.input) && (unicode.IsDigit(rune(l.input[l.pos])) || l.input[l.pos] == '.') {
		l.advance()
	}
	if c := l.peek(); c == 'e' || c == 'E' {
		next := l.peekAhead(1)
		if unicode.IsDigit(rune(next)) || ((next == '+' || next == '-') && unicode.IsDigit(rune(l.peekAhead(2)))) {
			l.advance()
			l.advance()
			for l.pos < len(l.input) && unicode.IsDigit(rune(l.input[l.pos])) {
				l.advance()
			}
		}
	}
	return l.makeToken(TokenNumber, start, startCol)
}

// readString reads a quoted literal; state labels are compared as strings.
func (l *Lexer) readString() (Token, error) {
	start, startCol := l.pos, l.column
	quote := l.advance()

	var value strings.Builder
	for l.pos < len(l.input) && l.peek() != quote {
		if l.peek() == '\\' && l.peekAhead(1) == quote {
			l.advance()
		}
		value.WriteByte(l.advance())
	}
	if l.pos >= len(l.input) {
		tok := l.makeToken(TokenInvalid, start, startCol)
		return tok, fmt.Errorf("unterminated string at column %d: %w", startCol, ErrSyntax)
	}
	l.advance() // closing quote

	tok := l.makeToken(TokenString, start, startCol)
	tok.Value = value.String()
	return tok, nil
}

// Helper functions

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAhead(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	l.column++
	return ch
}

func (l *Lexer) makeToken(tokenType TokenType, start, startCol int) Token {
	text := l.input[start:l.pos]
	return Token{
		Type:   tokenType,
		Value:  text,
		Text:   text,
		Pos:    start,
		Column: startCol,
	}
}
