package flat

import "math/big"

// ToUnsigned maps a signed integer onto a natural: non-negative x to 2x,
// negative x to -2x - 1.
func ToUnsigned(x int64) uint64 {
	return uint64(x<<1) ^ uint64(x>>63)
}

// ToSigned inverts ToUnsigned.
func ToSigned(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// ToUnsignedBig is ToUnsigned widened to arbitrary precision.
func ToUnsignedBig(x *big.Int) *big.Int {
	doubled := new(big.Int).Lsh(x, 1)
	if x.Sign() >= 0 {
		return doubled
	}
	doubled.Neg(doubled)
	return doubled.Sub(doubled, big.NewInt(1))
}

// ToSignedBig inverts ToUnsignedBig.
func ToSignedBig(u *big.Int) *big.Int {
	half := new(big.Int).Rsh(u, 1)
	if u.Bit(0) == 1 {
		half.Neg(half)
		return half.Sub(half, big.NewInt(1))
	}
	return half
}
