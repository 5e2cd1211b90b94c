package expression

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is returned when a function cannot be tokenized or its parentheses do not balance.
	ErrSyntax = errors.New("malformed function")

	// ErrUnknownToken is returned when a function refers to something it may not.
	ErrUnknownToken = errors.New("unknown token in function")

	// ErrEmpty is returned for a blank function.
	ErrEmpty = errors.New("empty function")
)

// TokenError describes a single offending token.
type TokenError struct {
	Token      string
	Column     int
	Function   bool // the token is used as a function call
	Suggestion string
}

func (e *TokenError) Error() string {
	kind := "identifier"
	if e.Function {
		kind = "function"
	}
	msg := fmt.Sprintf("unknown %s %q at column %d", kind, e.Token, e.Column)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *TokenError) Unwrap() error {
	return ErrUnknownToken
}

// Warning is a change made by Repair.
type Warning struct {
	Token       string
	Column      int
	Replacement string
	Message     string
}

func (w Warning) String() string {
	return w.Message
}
