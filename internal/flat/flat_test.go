package flat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigZagKnownValues(t *testing.T) {
	assert.Equal(t, uint64(0), ToUnsigned(0))
	assert.Equal(t, uint64(1), ToUnsigned(-1))
	assert.Equal(t, uint64(2), ToUnsigned(1))
	assert.Equal(t, uint64(3), ToUnsigned(-2))
	assert.Equal(t, uint64(4), ToUnsigned(2))

	assert.Equal(t, int64(0), ToSigned(0))
	assert.Equal(t, int64(-1), ToSigned(1))
	assert.Equal(t, int64(1), ToSigned(2))
	assert.Equal(t, int64(-2), ToSigned(3))
}

func TestZigZagIsABijection(t *testing.T) {
	values := []int64{0, 1, -1, 2, -2, 63, -64, 127, -128, 1 << 40, -(1 << 40), 1<<62 - 1, -(1 << 62)}
	for _, x := range values {
		assert.Equal(t, x, ToSigned(ToUnsigned(x)), "to_signed(to_unsigned(%d))", x)
	}
	for u := uint64(0); u < 2000; u++ {
		assert.Equal(t, u, ToUnsigned(ToSigned(u)), "to_unsigned(to_signed(%d))", u)
	}
}

func TestZigZagBigMirrorsFixedWidth(t *testing.T) {
	for _, x := range []int64{0, 1, -1, 2, -2, 1000, -1000} {
		got := ToUnsignedBig(big.NewInt(x))
		assert.Equal(t, ToUnsigned(x), got.Uint64())
		back := ToSignedBig(got)
		assert.Equal(t, x, back.Int64())
	}

	huge, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	round := ToSignedBig(ToUnsignedBig(huge))
	assert.Zero(t, huge.Cmp(round))
}

func TestWordEncoding(t *testing.T) {
	e := NewEncoder()
	e.Word(270)
	assert.Equal(t, []byte{0x8E, 0x02}, e.Buffer())

	d := NewDecoder([]byte{0x00})
	got, err := d.Word()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	d = NewDecoder([]byte{0x8E, 0x02})
	got, err = d.Word()
	require.NoError(t, err)
	assert.Equal(t, uint64(270), got)
}

func TestByteArrayFraming(t *testing.T) {
	e := NewEncoder()
	_, err := e.Bytes([]byte{1, 2, 3})
	require.NoError(t, err)
	// Filler byte first, then (len, bytes...) chunks and a 0 terminator.
	assert.Equal(t, []byte{0x01, 0x03, 0x01, 0x02, 0x03, 0x00}, e.Buffer())

	d := NewDecoder(e.Buffer())
	got, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestByteArrayChunking(t *testing.T) {
	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	e := NewEncoder()
	_, err := e.Bytes(payload)
	require.NoError(t, err)

	d := NewDecoder(e.Buffer())
	got, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestByteArrayRequiresAlignment(t *testing.T) {
	e := NewEncoder()
	e.Bool(true)
	_, err := e.ByteArray([]byte{1})
	assert.ErrorIs(t, err, ErrBufferNotByteAligned)
}

func TestBitsRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Bits(3, 0b101)
	e.Bits(7, 0b0110011)
	e.Bits(8, 0xAB)
	e.Filler()

	d := NewDecoder(e.Buffer())
	first, err := d.Bits8(3)
	require.NoError(t, err)
	assert.Equal(t, byte(0b101), first)
	second, err := d.Bits8(7)
	require.NoError(t, err)
	assert.Equal(t, byte(0b0110011), second)
	third, err := d.Bits8(8)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), third)
}

func TestBits8RejectsWideReads(t *testing.T) {
	d := NewDecoder([]byte{0xFF, 0xFF})
	_, err := d.Bits8(9)
	assert.ErrorIs(t, err, ErrIncorrectNumBits)
}

func TestIntegerRoundTrip(t *testing.T) {
	for _, x := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		e := NewEncoder()
		e.Integer(x)
		d := NewDecoder(e.Buffer())
		got, err := d.Integer()
		require.NoError(t, err)
		assert.Equal(t, x, got)
	}
}

func TestBigIntegerRoundTrip(t *testing.T) {
	huge, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	negative := new(big.Int).Neg(huge)
	for _, x := range []*big.Int{big.NewInt(0), big.NewInt(-7), huge, negative} {
		e := NewEncoder()
		e.BigInteger(x)
		d := NewDecoder(e.Buffer())
		got, err := d.BigInteger()
		require.NoError(t, err)
		assert.Zero(t, x.Cmp(got))
	}
}

func TestUtf8RoundTrip(t *testing.T) {
	e := NewEncoder()
	_, err := e.Utf8("hello, 世界")
	require.NoError(t, err)
	d := NewDecoder(e.Buffer())
	got, err := d.Utf8()
	require.NoError(t, err)
	assert.Equal(t, "hello, 世界", got)
}

func TestUtf8RejectsInvalidBytes(t *testing.T) {
	e := NewEncoder()
	_, err := e.Bytes([]byte{0xFF, 0xFE})
	require.NoError(t, err)
	d := NewDecoder(e.Buffer())
	_, err = d.Utf8()
	var utf8Err *DecodeUtf8Error
	assert.ErrorAs(t, err, &utf8Err)
}

func TestDecoderEndOfBuffer(t *testing.T) {
	d := NewDecoder(nil)
	_, err := d.Bit()
	assert.ErrorIs(t, err, ErrEndOfBuffer)

	d = NewDecoder([]byte{0x80})
	_, err = d.Word()
	var bitsErr *NotEnoughBitsError
	assert.ErrorAs(t, err, &bitsErr)
}

func TestListWithRoundTrip(t *testing.T) {
	e := NewEncoder()
	_, err := ListWith(e, []uint64{1, 2, 300}, func(e *Encoder, x uint64) error {
		e.Word(x)
		return nil
	})
	require.NoError(t, err)

	d := NewDecoder(e.Buffer())
	got, err := ListWith(d, func(d *Decoder) (uint64, error) {
		return d.Word()
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 300}, got)
}

func TestFillerRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Bool(true)
	e.Filler()
	d := NewDecoder(e.Buffer())
	bit, err := d.Bit()
	require.NoError(t, err)
	assert.True(t, bit)
	require.NoError(t, d.Filler())
	assert.Equal(t, 1, d.Pos())
}
