package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

// bomUTF8 is the UTF-8 byte order mark.
var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Normalize prepares raw source text for the lexer: a leading BOM is
// dropped and the text is folded to NFC, so spans stay byte-accurate and
// lexically equivalent spellings produce identical token streams.
func Normalize(src []byte) []byte {
	if bytes.HasPrefix(src, bomUTF8) {
		src = src[len(bomUTF8):]
	}
	return norm.NFC.Bytes(src)
}
