// Package statement maps domain values (asset mints, addresses, amounts) to
// field elements and assembles the ordered public-input vectors the Groth16
// verifier checks proofs against. Every transform here reproduces the
// circuit's arithmetic exactly; the ordering of the vectors is a hard wire
// contract, not a convention. A wrong order does not fail, it silently
// verifies a different statement.
package statement

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/veilpool/veilpool/types"
)

// AddressSize is the byte length of a host address.
const AddressSize = 32

// assetDomainSeparator prevents collisions between the asset-id hash and any
// other use of Keccak256 over mint bytes.
const assetDomainSeparator = "veilpool:asset"

// AssetID derives the field-element identifier of an asset mint:
// 0x00 || Keccak256(domainSeparator || mint)[0..31]. The leading zero byte
// guarantees the 32-byte value is below the scalar field modulus without any
// reduction step.
func AssetID(mint []byte) [32]byte {
	digest := ethcrypto.Keccak256([]byte(assetDomainSeparator), mint)
	var out [32]byte
	copy(out[1:], digest[:31])
	return out
}

// AddressToScalar maps a 32-byte address to a field element by dropping its
// last byte and prepending a zero byte, the same overflow-avoidance trick as
// AssetID.
func AddressToScalar(addr []byte) ([32]byte, error) {
	var out [32]byte
	if len(addr) != AddressSize {
		return out, fmt.Errorf("%w: address must be %d bytes, got %d",
			types.ErrValidation, AddressSize, len(addr))
	}
	copy(out[1:], addr[:31])
	return out, nil
}

// FieldElement interprets a 32-byte big-endian value as a big.Int.
func FieldElement(b [32]byte) *big.Int {
	return new(big.Int).SetBytes(b[:])
}
