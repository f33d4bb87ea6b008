package asm

import (
	"regexp"
)

// Token regex patterns
var tokenRegexes = map[TokenType]*regexp.Regexp{
	LABEL:     regexp.MustCompile(`^IL_[0-9A-Fa-f]+:`),
	OFFSET:    regexp.MustCompile(`^IL_[0-9A-Fa-f]+\b`),
	DIRECTIVE: regexp.MustCompile(`^\.(module|entry|type|field|method|locals)\b`),

	DCOLON:   regexp.MustCompile(`^::`),
	COLON:    regexp.MustCompile(`^:`),
	COMMA:    regexp.MustCompile(`^,`),
	LPAREN:   regexp.MustCompile(`^\(`),
	RPAREN:   regexp.MustCompile(`^\)`),
	LBRACKET: regexp.MustCompile(`^\[`),
	RBRACKET: regexp.MustCompile(`^\]`),

	NUM:    regexp.MustCompile(`^-?(0[xX][0-9A-Fa-f]+|\d+)\b`),
	STRING: regexp.MustCompile(`^"([^"\\]|\\.)*"`),
	IDENT:  regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*`),
}

var (
	whitespaceRegex = regexp.MustCompile(`^[ \t\r]+`)
	commentRegex    = regexp.MustCompile(`^//[^\n]*`)
)

// Token precedence order for matching (labels before identifiers)
var tokenPrecedenceOrder = []TokenType{
	LABEL, OFFSET, DIRECTIVE, DCOLON, COLON, COMMA,
	LPAREN, RPAREN, LBRACKET, RBRACKET, NUM, STRING, IDENT,
}

// MatchToken matches the first token at the start of s. Whitespace and
// comments are reported as EOF with the skipped text as lexeme.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if s[0] == '\n' {
		return NEWLINE, "\n", true
	} else if match := whitespaceRegex.FindString(s); match != "" {
		return EOF, match, true
	} else if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if match := tokenRegexes[tokenType].FindString(s); match != "" {
			return tokenType, match, true
		}
	}

	return ILLEGAL, string(s[0]), false
}
