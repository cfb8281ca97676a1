package database

import "fmt"

// Serializer interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
// Number is the position of the block in the chain, genesis being 0.
type BlockData struct {
	Number uint64      `json:"number"`
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"header"`
	Trans  []Tx        `json:"trans"`
}

// NewBlockData constructs block data from a block and its chain position.
func NewBlockData(number uint64, block Block) BlockData {
	return BlockData{
		Number: number,
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  cloneTrans(block.Trans),
	}
}

// ToBlock converts block data back into a block. The copy of the hash kept
// next to the header must agree with the header.
func ToBlock(blockData BlockData) (Block, error) {
	if blockData.Hash != blockData.Header.Hash {
		return Block{}, fmt.Errorf("%w: block %d stored hash %s, header hash %s", ErrIntegrityViolation, blockData.Number, blockData.Hash, blockData.Header.Hash)
	}

	block := Block{
		Header: blockData.Header,
		Trans:  cloneTrans(blockData.Trans),
	}

	return block, nil
}
