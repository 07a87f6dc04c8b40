package manifest

import "fmt"

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF
	IDENT    // Vec, T, u32
	LIFETIME // 'a, 'static
	LT       // <
	GT       // >
	COMMA    // ,
	COLON    // :
	DCOLON   // ::
	LPAREN   // (
	RPAREN   // )
	AMP      // &
	PLUS     // +
	EQ       // ==
	ARROW    // ->
	SUBTYPE  // <:
)

var tokenNames = map[TokenType]string{
	ILLEGAL:  "ILLEGAL",
	EOF:      "end of expression",
	IDENT:    "identifier",
	LIFETIME: "lifetime",
	LT:       "'<'",
	GT:       "'>'",
	COMMA:    "','",
	COLON:    "':'",
	DCOLON:   "'::'",
	LPAREN:   "'('",
	RPAREN:   "')'",
	AMP:      "'&'",
	PLUS:     "'+'",
	EQ:       "'=='",
	ARROW:    "'->'",
	SUBTYPE:  "'<:'",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset in the expression
}
