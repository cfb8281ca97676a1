// Package genesis maintains access to the genesis configuration.
//
// Two genesis policies exist and they are not hash compatible. The default
// is fully hardcoded and unmined, so every node builds the same block 0. A
// configuration with Mined set stamps the current time and mines the block,
// which makes block 0 unique to the node that created it.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/validate"
)

// Values of the hardcoded genesis block.
const (
	Version       uint64 = 1
	PrevBlockHash        = "0"
	MerkleRoot           = "0x4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	TimeStamp     uint64 = 1231006505000
	Nonce         uint32 = 0
	Difficulty    uint32 = 0x3
)

// Genesis represents the genesis configuration.
type Genesis struct {
	Version       uint64 `json:"version" validate:"required"`
	PrevBlockHash string `json:"prev_block_hash" validate:"required"`
	MerkleRoot    string `json:"merkle_root" validate:"required"`
	TimeStamp     uint64 `json:"timestamp"` // Ignored when Mined is set.
	Nonce         uint32 `json:"nonce"`
	Difficulty    uint32 `json:"difficulty" validate:"lte=256"` // Bits, 256 would need an all zero hash.
	Mined         bool   `json:"mined"`
}

// Default returns the hardcoded, unmined genesis configuration.
func Default() Genesis {
	return Genesis{
		Version:       Version,
		PrevBlockHash: PrevBlockHash,
		MerkleRoot:    MerkleRoot,
		TimeStamp:     TimeStamp,
		Nonce:         Nonce,
		Difficulty:    Difficulty,
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis %s: %w", path, err)
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("validating genesis %s: %w", path, err)
	}

	return genesis, nil
}
