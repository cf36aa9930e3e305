package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PoolID is the type to identify a shielded pool. It is composed of:
// - ChainID (4 bytes)
// - Asset mint address (20 bytes)
// - Nonce (8 bytes)
type PoolID struct {
	Asset   common.Address
	Nonce   uint64
	ChainID uint32
}

// Marshal encodes PoolID to its 32-byte form.
func (p *PoolID) Marshal() []byte {
	chainID := make([]byte, 4)
	binary.BigEndian.PutUint32(chainID, p.ChainID)

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, p.Nonce)

	var id bytes.Buffer
	id.Write(chainID[:4])
	id.Write(p.Asset.Bytes()[:20])
	id.Write(nonce[:8])
	return id.Bytes()
}

// Unmarshal decodes bytes to PoolID.
func (p *PoolID) Unmarshal(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("invalid PoolID length: %d", len(data))
	}
	p.ChainID = binary.BigEndian.Uint32(data[:4])
	p.Asset = common.BytesToAddress(data[4:24])
	p.Nonce = binary.BigEndian.Uint64(data[24:32])
	return nil
}

// MarshalBinary implements the BinaryMarshaler interface.
func (p *PoolID) MarshalBinary() (data []byte, err error) {
	return p.Marshal(), nil
}

// UnmarshalBinary implements the BinaryUnmarshaler interface.
func (p *PoolID) UnmarshalBinary(data []byte) error {
	return p.Unmarshal(data)
}

// SetBytes decodes data into the PoolID and returns it. It panics on
// malformed input, use Unmarshal to handle the error.
func (p *PoolID) SetBytes(data []byte) *PoolID {
	if err := p.Unmarshal(data); err != nil {
		panic(err)
	}
	return p
}

func (p *PoolID) String() string {
	return hex.EncodeToString(p.Marshal())
}
