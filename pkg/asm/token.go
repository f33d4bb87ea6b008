package asm

import (
	"fmt"
)

type TokenType int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from the listing
	Literal string    // Literal value (if applicable), empty string if not
	Pos     Position  // Position in the listing
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, Pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     Pos,
	}
}

const (
	EOF TokenType = iota // End of file

	NEWLINE   // end of line
	DIRECTIVE // .module .entry .type .field .method .locals
	LABEL     // IL_0000:
	OFFSET    // IL_0000
	IDENT     // mnemonics, type and member names
	NUM       // decimal or hex integer
	STRING    // string literal

	DCOLON   // ::
	COLON    // :
	COMMA    // ,
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	ILLEGAL // illegal token
)

var tokenNames = map[TokenType]string{
	EOF:       "$",
	NEWLINE:   "newline",
	DIRECTIVE: "directive",
	LABEL:     "label",
	OFFSET:    "offset",
	IDENT:     "ident",
	NUM:       "num",
	STRING:    "string",
	DCOLON:    "::",
	COLON:     ":",
	COMMA:     ",",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	ILLEGAL:   "illegal",
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" {
		return fmt.Sprintf("T_{%s, %v, nil, %s}",
			t.Type, t.Lexeme, t.Pos.String())
	}

	return fmt.Sprintf("T_{%s, %v, %q, %s}",
		t.Type, t.Lexeme, t.Literal, t.Pos.String())
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := tokenNames[t]; ok {
		return str
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}
