package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt wraps math/big.Int with decimal-string JSON encoding and big-endian
// byte CBOR encoding, so field elements survive round-trips through both the
// HTTP API and the artifact store.
type BigInt big.Int

// MathBigInt returns the underlying *big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

func (i *BigInt) String() string {
	return i.MathBigInt().String()
}

// SetBytes interprets buf as big-endian and sets i to that value.
func (i *BigInt) SetBytes(buf []byte) *BigInt {
	i.MathBigInt().SetBytes(buf)
	return i
}

func (i *BigInt) Bytes() []byte {
	return i.MathBigInt().Bytes()
}

func (i *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

func (i *BigInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if _, ok := i.MathBigInt().SetString(s, 10); !ok {
		return fmt.Errorf("invalid big integer: %q", s)
	}
	return nil
}

func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.Bytes())
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var buf []byte
	if err := cbor.Unmarshal(data, &buf); err != nil {
		return err
	}
	i.SetBytes(buf)
	return nil
}
