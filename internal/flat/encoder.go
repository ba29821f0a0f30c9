// Package flat implements the bit-granular Flat serialisation format used
// for UPLC programs: MSB-first bit packing, ZigZag integers encoded as
// 7-bit little-endian groups, 255-byte chunked byte arrays, and the
// trailing filler that pads a stream to a byte boundary.
package flat

import "math/big"

// Encoder writes a Flat bit stream. Bits fill the current byte from the
// most significant end; currentByte is flushed into the buffer once all
// eight bits are used.
type Encoder struct {
	buffer      []byte
	usedBits    int64
	currentByte byte
}

// NewEncoder creates an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Buffer returns the encoded bytes. Call Filler first to byte-align the
// stream.
func (e *Encoder) Buffer() []byte {
	return e.buffer
}

// U8 writes a full byte, straddling the current byte boundary if needed.
func (e *Encoder) U8(x byte) *Encoder {
	if e.usedBits == 0 {
		e.currentByte = x
		e.nextWord()
	} else {
		e.byteUnaligned(x)
	}
	return e
}

// Bool writes a single bit.
func (e *Encoder) Bool(x bool) *Encoder {
	if x {
		e.one()
	} else {
		e.zero()
	}
	return e
}

// Bytes writes a filler followed by a byte-aligned chunked byte array.
func (e *Encoder) Bytes(x []byte) (*Encoder, error) {
	e.Filler()
	return e.ByteArray(x)
}

// ByteArray writes a chunked byte array. The stream must already be
// byte-aligned.
func (e *Encoder) ByteArray(arr []byte) (*Encoder, error) {
	if e.usedBits != 0 {
		return nil, ErrBufferNotByteAligned
	}
	e.writeBlk(arr)
	return e, nil
}

// Integer writes a ZigZag-encoded signed integer.
func (e *Encoder) Integer(i int64) *Encoder {
	e.Word(ToUnsigned(i))
	return e
}

// BigInteger writes a ZigZag-encoded arbitrary-precision integer.
func (e *Encoder) BigInteger(i *big.Int) *Encoder {
	e.BigWord(ToUnsignedBig(i))
	return e
}

// Char writes a unicode codepoint as a natural.
func (e *Encoder) Char(c rune) *Encoder {
	e.Word(uint64(c))
	return e
}

// Utf8 writes a string as its UTF-8 bytes.
func (e *Encoder) Utf8(s string) (*Encoder, error) {
	return e.Bytes([]byte(s))
}

// Word writes a natural number as 7-bit little-endian groups with a
// continuation bit in the MSB of each group.
func (e *Encoder) Word(c uint64) *Encoder {
	d := c
	for {
		w := byte(d & 127)
		d >>= 7
		if d != 0 {
			w |= 128
		}
		e.Bits(8, w)
		if d == 0 {
			break
		}
	}
	return e
}

// BigWord writes an arbitrary-precision natural in the same group encoding.
func (e *Encoder) BigWord(c *big.Int) *Encoder {
	d := new(big.Int).Set(c)
	mask := big.NewInt(127)
	for {
		group := new(big.Int).And(d, mask)
		w := byte(group.Uint64())
		d.Rsh(d, 7)
		if d.Sign() != 0 {
			w |= 128
		}
		e.Bits(8, w)
		if d.Sign() == 0 {
			break
		}
	}
	return e
}

// ListWith writes a list as 1-prefixed items followed by a 0 terminator.
func ListWith[T any](e *Encoder, list []T, item func(*Encoder, T) error) (*Encoder, error) {
	for _, x := range list {
		e.one()
		if err := item(e, x); err != nil {
			return nil, err
		}
	}
	e.zero()
	return e, nil
}

// Bits writes the numBits low bits of val, MSB first.
func (e *Encoder) Bits(numBits int64, val byte) *Encoder {
	switch {
	case numBits == 1 && val == 0:
		e.zero()
	case numBits == 1 && val == 1:
		e.one()
	case numBits == 2 && val < 4:
		e.Bool(val&2 != 0)
		e.Bool(val&1 != 0)
	default:
		e.usedBits += numBits
		unusedBits := 8 - e.usedBits
		switch {
		case unusedBits > 0:
			e.currentByte |= val << unusedBits
		case unusedBits == 0:
			e.currentByte |= val
			e.nextWord()
		default:
			used := -unusedBits
			e.currentByte |= val >> used
			e.nextWord()
			e.currentByte = val << (8 - used)
			e.usedBits = used
		}
	}
	return e
}

// Filler pads with zero bits then a final 1 bit up to the next byte
// boundary.
func (e *Encoder) Filler() *Encoder {
	e.currentByte |= 1
	e.nextWord()
	return e
}

func (e *Encoder) zero() {
	if e.usedBits == 7 {
		e.nextWord()
	} else {
		e.usedBits++
	}
}

func (e *Encoder) one() {
	if e.usedBits == 7 {
		e.currentByte |= 1
		e.nextWord()
	} else {
		e.currentByte |= 128 >> e.usedBits
		e.usedBits++
	}
}

func (e *Encoder) byteUnaligned(x byte) {
	shifted := e.currentByte | (x >> e.usedBits)
	e.buffer = append(e.buffer, shifted)
	e.currentByte = x << (8 - e.usedBits)
}

func (e *Encoder) nextWord() {
	e.buffer = append(e.buffer, e.currentByte)
	e.currentByte = 0
	e.usedBits = 0
}

func (e *Encoder) writeBlk(arr []byte) {
	for len(arr) > 255 {
		e.buffer = append(e.buffer, 255)
		e.buffer = append(e.buffer, arr[:255]...)
		arr = arr[255:]
	}
	if len(arr) > 0 {
		e.buffer = append(e.buffer, byte(len(arr)))
		e.buffer = append(e.buffer, arr...)
	}
	e.buffer = append(e.buffer, 0)
}
