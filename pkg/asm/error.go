package asm

import (
	"fmt"
	"strings"

	"vclr/pkg/color"
)

// SyntaxError carries every message collected while parsing a listing.
type SyntaxError struct {
	Messages []string
}

func (e *SyntaxError) Error() string {
	return strings.Join(e.Messages, "\n")
}

func (p *Parser) addError(title, detail string, pos Position) {
	msg := color.RedText(title)
	if detail != "" {
		msg += " `" + color.BlueText(detail) + "`"
	}
	msg += " at " + color.YellowText(fmt.Sprintf("Line: %d, Column %d", pos.Line, pos.Column))
	p.errors = append(p.errors, msg)
}

// unexpected reports the current token as not matching what, then drops
// the rest of the line.
func (p *Parser) unexpected(what string) {
	tok := p.currentToken
	found := tok.Lexeme
	switch tok.Type {
	case EOF:
		found = "end of input"
	case NEWLINE:
		found = "end of line"
	}
	p.addError("Expected "+what+", found", found, tok.Pos)
	p.skipLine()
}

// invalid reports a token of the right kind but with an unusable value.
func (p *Parser) invalid(what string, tok Token) {
	p.addError("Invalid "+what, tok.Lexeme, tok.Pos)
	p.skipLine()
}
