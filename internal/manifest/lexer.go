package manifest

import (
	"unicode"
	"unicode/utf8"
)

// Lexer splits one type or predicate expression into tokens.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.readPosition++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.readPosition += w
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) NextToken() Token {
	for unicode.IsSpace(l.ch) {
		l.readChar()
	}
	pos := l.position
	single := func(t TokenType) Token {
		tok := Token{Type: t, Literal: string(l.ch), Pos: pos}
		l.readChar()
		return tok
	}
	double := func(t TokenType) Token {
		lit := string(l.ch) + string(l.peekChar())
		l.readChar()
		l.readChar()
		return Token{Type: t, Literal: lit, Pos: pos}
	}

	switch l.ch {
	case 0:
		return Token{Type: EOF, Pos: pos}
	case '<':
		if l.peekChar() == ':' {
			return double(SUBTYPE)
		}
		return single(LT)
	case '>':
		return single(GT)
	case ',':
		return single(COMMA)
	case ':':
		if l.peekChar() == ':' {
			return double(DCOLON)
		}
		return single(COLON)
	case '(':
		return single(LPAREN)
	case ')':
		return single(RPAREN)
	case '&':
		return single(AMP)
	case '+':
		return single(PLUS)
	case '=':
		if l.peekChar() == '=' {
			return double(EQ)
		}
	case '-':
		if l.peekChar() == '>' {
			return double(ARROW)
		}
	case '\'':
		l.readChar()
		if !isIdentStart(l.ch) {
			return Token{Type: ILLEGAL, Literal: "'", Pos: pos}
		}
		return Token{Type: LIFETIME, Literal: "'" + l.readIdentifier(), Pos: pos}
	default:
		if isIdentStart(l.ch) {
			return Token{Type: IDENT, Literal: l.readIdentifier(), Pos: pos}
		}
	}
	return single(ILLEGAL)
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentStart(l.ch) || unicode.IsDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}
