package crypto

import "math/big"

const SerializedFieldSize = 32 // bytes

// BigToFF function returns the finite field representation of the big.Int
// provided. It uses the field modulus provided to represent the number.
func BigToFF(field, iv *big.Int) *big.Int {
	z := big.NewInt(0)
	if c := iv.Cmp(field); c == 0 {
		return z
	} else if c != 1 && iv.Cmp(z) != -1 {
		return iv
	}
	return z.Mod(iv, field)
}

// BigToFixedBytes returns the 32-byte big-endian representation of the
// big.Int provided, left-padded with zeros.
func BigToFixedBytes(iv *big.Int) []byte {
	b := iv.Bytes()
	if len(b) >= SerializedFieldSize {
		return b[len(b)-SerializedFieldSize:]
	}
	out := make([]byte, SerializedFieldSize)
	copy(out[SerializedFieldSize-len(b):], b)
	return out
}
