package asm

import (
	"strconv"
)

type Lexer struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
	column   int    // current column number for error reporting
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:    s,
		length:   len(s),
		position: 0,
		line:     1,
		column:   1,
	}
}

// Get the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		if l.position >= l.length {
			return NewToken(EOF, "", "", l.currentPosition())
		}

		remaining := l.input[l.position:]
		tokenType, lexeme, matched := MatchToken(remaining)

		if !matched {
			pos := l.currentPosition()
			l.advance(1)
			return NewToken(ILLEGAL, lexeme, "", pos)
		}

		// whitespace and comments
		if tokenType == EOF {
			l.advance(len(lexeme))
			continue
		}

		var literal string
		switch tokenType {
		case STRING:
			unquoted, err := strconv.Unquote(lexeme)
			if err != nil {
				pos := l.currentPosition()
				l.advance(len(lexeme))
				return NewToken(ILLEGAL, lexeme, "", pos)
			}
			literal = unquoted
		case LABEL:
			literal = lexeme[3 : len(lexeme)-1]
		case OFFSET:
			literal = lexeme[3:]
		default:
			literal = lexeme
		}

		tok := NewToken(tokenType, lexeme, literal, l.currentPosition())
		l.advance(len(lexeme))

		return tok
	}
}

// View next token without advancing the position
func (l *Lexer) Peek() Token {
	// save state
	cpos := l.position
	cline := l.line
	ccol := l.column

	token := l.NextToken()

	// restore state
	l.position = cpos
	l.line = cline
	l.column = ccol

	return token
}

// Advance the lexer position by n characters
func (l *Lexer) advance(n int) {
	for range n {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}
