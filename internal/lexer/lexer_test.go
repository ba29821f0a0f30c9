package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, token := range tokens {
		out[i] = token.Type
	}
	return out
}

func TestLexSimpleFunction(t *testing.T) {
	tokens := New("pub fn add(a: Int) -> Int { a + 1 }").Tokens()
	assert.Equal(t, []TokenType{
		PUB, FN, NAME, LPAREN, NAME, COLON, UPNAME, RPAREN, ARROW, UPNAME,
		LBRACE, NAME, PLUS, INT, RBRACE, EOF,
	}, tokenTypes(tokens))
}

func TestLexOperators(t *testing.T) {
	tokens := New("|> || | == != <= >= -> .. && !").Tokens()
	assert.Equal(t, []TokenType{
		PIPEGT, PIPEPIPE, PIPE, EQEQ, NOTEQ, LTEQ, GTEQ, ARROW, DOTDOT,
		AMPAMP, BANG, EOF,
	}, tokenTypes(tokens))
}

func TestLexSpans(t *testing.T) {
	tokens := New("when x").Tokens()
	require.Len(t, tokens, 3)
	assert.Equal(t, 0, tokens[0].Location.Start)
	assert.Equal(t, 4, tokens[0].Location.End)
	assert.Equal(t, 5, tokens[1].Location.Start)
	assert.Equal(t, 6, tokens[1].Location.End)
}

func TestLexIntWithUnderscores(t *testing.T) {
	tokens := New("1_000_000").Tokens()
	require.Equal(t, INT, tokens[0].Type)
	assert.Equal(t, "1000000", tokens[0].Literal)
}

func TestLexStringEscapes(t *testing.T) {
	tokens := New(`"a\nb\"c"`).Tokens()
	require.Equal(t, STRING, tokens[0].Type)
	assert.Equal(t, "a\nb\"c", tokens[0].Literal)
}

func TestLexBase16Literal(t *testing.T) {
	tokens := New(`#"00ff"`).Tokens()
	require.Equal(t, BYTES, tokens[0].Type)
	assert.Equal(t, []byte{0x00, 0xFF}, tokens[0].Bytes)
}

func TestLexMalformedBase16(t *testing.T) {
	tokens := New(`#"zz"`).Tokens()
	assert.Equal(t, ILLEGAL, tokens[0].Type)
}

func TestLexComments(t *testing.T) {
	tokens := New("1 // the rest is ignored\n2").Tokens()
	assert.Equal(t, []TokenType{INT, INT, EOF}, tokenTypes(tokens))
}

func TestLexDiscardNames(t *testing.T) {
	tokens := New("_ _ignored").Tokens()
	assert.Equal(t, []TokenType{DISCARD, DISCARD, EOF}, tokenTypes(tokens))
	assert.Equal(t, "_ignored", tokens[1].Literal)
}

func TestNormalizeNFC(t *testing.T) {
	// e + combining acute vs precomposed é: both must lex identically.
	decomposed := "café"
	precomposed := "café"
	a := New(decomposed).Tokens()
	b := New(precomposed).Tokens()
	require.Equal(t, len(a), len(b))
	assert.Equal(t, a[0].Literal, b[0].Literal)
}

func TestNormalizeStripsBOM(t *testing.T) {
	tokens := New("\uFEFFlet").Tokens()
	assert.Equal(t, LET, tokens[0].Type)
	assert.Equal(t, 0, tokens[0].Location.Start)
}
