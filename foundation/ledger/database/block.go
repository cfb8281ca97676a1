package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/hashing"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/merkle"
)

// CurrentVersion is the block version written by this software.
const CurrentVersion uint64 = 1

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Version       uint64 `json:"version"`         // Bitcoin: Block version number.
	PrevBlockHash string `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	MerkleRoot    string `json:"merkle_root"`     // Bitcoin: Merkle root of the transaction ids in this block.
	TimeStamp     uint64 `json:"timestamp"`       // Bitcoin: Time the block was created, in milliseconds.
	Nonce         uint32 `json:"nonce"`           // Bitcoin: Value identified to solve the hash solution.
	Difficulty    uint32 `json:"difficulty"`      // Number of leading zero bits needed, rounded down to hex digits.
	Hash          string `json:"hash"`            // Hash of this block, stale until recomputed.
}

// Serialize produces the canonical string of the header. The hash field is
// excluded since it is derived from the others.
func (h BlockHeader) Serialize() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(h.TimeStamp, 10))
	sb.WriteString(strconv.FormatUint(h.Version, 10))
	sb.WriteString(h.PrevBlockHash)
	sb.WriteString(h.MerkleRoot)
	sb.WriteString(strconv.FormatUint(uint64(h.Nonce), 10))
	sb.WriteString(strconv.FormatUint(uint64(h.Difficulty), 10))

	return sb.String()
}

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader `json:"header"`
	Trans  []Tx        `json:"trans"`
}

// NewBlock constructs a block on top of the specified previous block hash.
// The transactions are copied and the merkle root is computed. The block
// still needs a difficulty and mining before a chain will accept it.
func NewBlock(trans []Tx, prevBlockHash string) Block {
	b := Block{
		Header: BlockHeader{
			Version:       CurrentVersion,
			PrevBlockHash: prevBlockHash,
			TimeStamp:     uint64(time.Now().UTC().UnixMilli()),
		},
		Trans: cloneTrans(trans),
	}
	b.ComputeMerkleRoot()

	return b
}

// Hash returns the stored hash of the block.
func (b Block) Hash() string {
	return b.Header.Hash
}

// MerkleRoot returns the stored merkle root of the block.
func (b Block) MerkleRoot() string {
	return b.Header.MerkleRoot
}

// PrevHash returns the hash of the block this block links to.
func (b Block) PrevHash() string {
	return b.Header.PrevBlockHash
}

// Serialize produces the canonical string of the block: the header followed
// by every transaction in block order.
func (b Block) Serialize() string {
	var sb strings.Builder
	sb.WriteString(b.Header.Serialize())
	for _, tx := range b.Trans {
		sb.WriteString(tx.Serialize())
	}

	return sb.String()
}

// CalculateHash returns the hash the block should have for its current
// content. The stored hash is not updated.
func (b Block) CalculateHash() string {
	return hashing.Of(b)
}

// ComputeHash recomputes and stores the block hash.
func (b *Block) ComputeHash() {
	b.Header.Hash = b.CalculateHash()
}

// CalculateMerkleRoot runs the merkle engine over the transaction ids in
// block order. The boolean is false for a block without transactions.
func (b Block) CalculateMerkleRoot() (string, bool) {
	leaves := make([]string, len(b.Trans))
	for i, tx := range b.Trans {
		leaves[i] = tx.LeafHash()
	}

	return merkle.Root(leaves)
}

// ComputeMerkleRoot recomputes and stores the merkle root. A block without
// transactions keeps whatever root it already has.
func (b *Block) ComputeMerkleRoot() {
	if root, ok := b.CalculateMerkleRoot(); ok {
		b.Header.MerkleRoot = root
	}
}

// IsStale reports whether the stored hash is unset or no longer matches the
// content of the block.
func (b Block) IsStale() bool {
	return b.Header.Hash == "" || b.Header.Hash != b.CalculateHash()
}

// Mine performs the proof of work for the block. The nonce is incremented
// from its current value until the block hash has the number of leading
// zero hex digits required by the difficulty.
//
// There is no bound on attempts. A difficulty that cannot be met in
// practice keeps this call running, that is the cost model of the work.
func (b *Block) Mine() {
	b.MineContext(context.Background(), nil)
}

// MineContext performs the same work as Mine but stops when the context is
// cancelled, returning the context error. The evHandler, if not nil, is
// told about progress.
func (b *Block) MineContext(ctx context.Context, evHandler func(v string, args ...any)) error {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ev("database: Mine: MINING: started: difficulty[%d] nonce[%d]", b.Header.Difficulty, b.Header.Nonce)
	defer ev("database: Mine: MINING: completed")

	target := Target(b.Header.Difficulty)

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		// Did we get told to stop looking for a solution.
		if ctx.Err() != nil {
			ev("database: Mine: MINING: CANCELLED")
			return ctx.Err()
		}

		b.Header.Nonce++
		b.ComputeHash()

		if strings.HasPrefix(b.Header.Hash, target) {
			ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", shortHash(b.Header.PrevBlockHash), b.Header.Hash, attempts)
			return nil
		}
	}
}

// Verify checks the block on its own: the txids and merkle root match the
// transactions, the stored hash matches the content, and the hash satisfies
// the block's difficulty.
func (b Block) Verify() error {
	if err := b.VerifyIntegrity(); err != nil {
		return err
	}

	return b.VerifyWork()
}

// VerifyIntegrity checks every txid, the stored merkle root and the stored
// hash against a fresh computation. A block without transactions has no
// root to recompute.
func (b Block) VerifyIntegrity() error {
	for i, tx := range b.Trans {
		if tx.IsStale() {
			return fmt.Errorf("%w: tx %d id does not match content, got %s, exp %s", ErrIntegrityViolation, i, tx.ID, tx.ComputeHash())
		}
	}

	if root, ok := b.CalculateMerkleRoot(); ok && root != b.Header.MerkleRoot {
		return fmt.Errorf("%w: merkle root does not match transactions, got %s, exp %s", ErrIntegrityViolation, b.Header.MerkleRoot, root)
	}

	if hash := b.CalculateHash(); hash != b.Header.Hash {
		return fmt.Errorf("%w: block hash does not match content, got %s, exp %s", ErrIntegrityViolation, b.Header.Hash, hash)
	}

	return nil
}

// VerifyWork checks the stored hash satisfies the block's difficulty.
func (b Block) VerifyWork() error {
	if !IsHashSolved(b.Header.Difficulty, b.Header.Hash) {
		return fmt.Errorf("%w: hash %s, difficulty %d", ErrInsufficientWork, b.Header.Hash, b.Header.Difficulty)
	}

	return nil
}

// ValidateLink checks the block points at the hash of the previous block.
func (b Block) ValidateLink(prevBlock Block) error {
	if b.Header.PrevBlockHash != prevBlock.Header.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrLinkageMismatch, b.Header.PrevBlockHash, prevBlock.Header.Hash)
	}

	return nil
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	return Block{
		Header: b.Header,
		Trans:  cloneTrans(b.Trans),
	}
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%s:prev[%s]:trans[%d]:nonce[%d]:difficulty[%d]", shortHash(b.Header.Hash), shortHash(b.Header.PrevBlockHash), len(b.Trans), b.Header.Nonce, b.Header.Difficulty)
}

// =============================================================================

// Target returns the prefix a hash needs to solve the specified difficulty.
// Difficulty is in bits and every hex digit holds 4 of them, any remainder
// bits are dropped. A target longer than a hash can never be solved so it
// is capped one digit past the hash length.
func Target(difficulty uint32) string {
	n := int(difficulty / 4)
	if n > hashing.Size {
		n = hashing.Size + 1
	}

	return strings.Repeat("0", n)
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty/4 number of leading 0's.
func IsHashSolved(difficulty uint32, hash string) bool {
	if len(hash) != hashing.Size {
		return false
	}

	return strings.HasPrefix(hash, Target(difficulty))
}

// cloneTrans performs a deep copy of the transactions.
func cloneTrans(trans []Tx) []Tx {
	if trans == nil {
		return nil
	}

	cpy := make([]Tx, len(trans))
	for i, tx := range trans {
		cpy[i] = tx.Clone()
	}

	return cpy
}
