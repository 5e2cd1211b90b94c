package expression

import "fmt"

// Token represents a lexical token of a node function
type Token struct {
	Type   TokenType
	Value  string // decoded value (strings without quotes)
	Text   string // source text
	Pos    int
	Column int
}

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenInvalid

	// Identifiers and literals
	TokenIdentifier
	TokenNumber
	TokenString

	// Operators
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenCaret        // ^
	TokenEquals       // ==
	TokenNotEquals    // !=
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
	TokenAnd          // &&
	TokenOr           // ||
	TokenNot          // !
	TokenQuestion     // ?
	TokenColon        // :
	TokenComma        // ,

	// Delimiters
	TokenLeftParen  // (
	TokenRightParen // )
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenInvalid:
		return "INVALID"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenComma:
		return ","
	default:
		return fmt.Sprintf("Token(%d)", t)
	}
}

// wordLike tokens need a space between them when re-rendered.
func (t TokenType) wordLike() bool {
	return t == TokenIdentifier || t == TokenNumber || t == TokenString
}
