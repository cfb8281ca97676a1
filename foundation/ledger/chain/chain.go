// Package chain maintains the ordered list of blocks that make up the ledger
// and enforces the rules a block must pass before it is appended.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/genesis"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/miner"
)

// ErrBlockNotFound is returned when a block number is past the tip.
var ErrBlockNotFound = errors.New("block not found")

// EventHandler defines a function that is called when events
// occur in the processing of the chain.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to open a chain.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Serializer
	EvHandler EventHandler
}

// Chain manages the blocks of the ledger. It is never empty, block 0 is the
// genesis block. All reads hand out copies.
type Chain struct {
	mu sync.RWMutex

	genesis   genesis.Genesis
	blocks    []database.Block
	storage   database.Serializer
	evHandler EventHandler
}

// New constructs a chain holding only the hardcoded genesis block. The chain
// is kept in memory.
func New() *Chain {
	gen := genesis.Default()

	return &Chain{
		genesis:   gen,
		blocks:    []database.Block{GenesisBlock(gen)},
		evHandler: func(v string, args ...any) {},
	}
}

// Open constructs a chain from the configuration. When storage is provided
// the blocks it holds are loaded and validated, an empty storage gets the
// genesis block written to it.
func Open(cfg Config) (*Chain, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	gen := cfg.Genesis
	if gen == (genesis.Genesis{}) {
		gen = genesis.Default()
	}

	c := Chain{
		genesis:   gen,
		storage:   cfg.Storage,
		evHandler: ev,
	}

	if cfg.Storage == nil {
		c.blocks = []database.Block{GenesisBlock(gen)}
		return &c, nil
	}

	blocks, err := load(cfg.Storage)
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		ev("chain: Open: storage empty: writing genesis")

		genBlock := GenesisBlock(gen)
		if err := cfg.Storage.Write(database.NewBlockData(0, genBlock)); err != nil {
			return nil, fmt.Errorf("writing genesis: %w", err)
		}

		c.blocks = []database.Block{genBlock}
		return &c, nil
	}

	// Only the hardcoded policy can be rebuilt and compared. A mined genesis
	// is unique to the node that created it.
	if !gen.Mined {
		if exp := GenesisBlock(gen); blocks[0].Hash() != exp.Hash() {
			return nil, fmt.Errorf("%w: stored genesis %s, configured genesis %s", database.ErrIntegrityViolation, blocks[0].Hash(), exp.Hash())
		}
	}

	if err := validateBlocks(blocks, ev); err != nil {
		return nil, fmt.Errorf("loading chain: %w", err)
	}

	ev("chain: Open: loaded: blocks[%d]: tip[%s]", len(blocks), blocks[len(blocks)-1])

	c.blocks = blocks
	return &c, nil
}

// GenesisBlock builds block 0 for the specified configuration. Under the
// hardcoded policy the hash is computed but no work is done, so the block
// does not need to satisfy its difficulty.
func GenesisBlock(gen genesis.Genesis) database.Block {
	b := database.Block{
		Header: database.BlockHeader{
			Version:       gen.Version,
			PrevBlockHash: gen.PrevBlockHash,
			MerkleRoot:    gen.MerkleRoot,
			TimeStamp:     gen.TimeStamp,
			Nonce:         gen.Nonce,
			Difficulty:    gen.Difficulty,
		},
	}

	if gen.Mined {
		b.Header.TimeStamp = uint64(time.Now().UTC().UnixMilli())
		b.Mine()
		return b
	}

	b.ComputeHash()
	return b
}

// =============================================================================

// AddBlock appends the candidate block to the chain. The candidate must
// point at the current tip, its merkle root and hash must match its content,
// and its hash must satisfy its own difficulty. On any failure the chain is
// left untouched.
func (c *Chain) AddBlock(candidate database.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	num := len(c.blocks)

	c.evHandler("chain: AddBlock: started: blk[%d]: %s", num, candidate)
	defer c.evHandler("chain: AddBlock: completed: blk[%d]", num)

	tip := c.blocks[num-1]

	c.evHandler("chain: AddBlock: validate: blk[%d]: check: prev hash", num)
	if err := candidate.ValidateLink(tip); err != nil {
		c.evHandler("chain: AddBlock: validate: blk[%d]: ERROR: %s", num, err)
		return fmt.Errorf("blk[%d]: %w", num, err)
	}

	c.evHandler("chain: AddBlock: validate: blk[%d]: check: merkle root, hash and work", num)
	if err := candidate.Verify(); err != nil {
		c.evHandler("chain: AddBlock: validate: blk[%d]: ERROR: %s", num, err)
		return fmt.Errorf("blk[%d]: %w", num, err)
	}

	block := candidate.Clone()

	if c.storage != nil {
		c.evHandler("chain: AddBlock: write: blk[%d]", num)
		if err := c.storage.Write(database.NewBlockData(uint64(num), block)); err != nil {
			return fmt.Errorf("writing blk[%d]: %w", num, err)
		}
	}

	c.blocks = append(c.blocks, block)

	return nil
}

// ValidateChain walks every block and checks the linkage between each pair,
// the stored merkle root and hash of each block, and the work of every block
// after genesis. The first violation found is returned.
func (c *Chain) ValidateChain() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.evHandler("chain: ValidateChain: started: blocks[%d]", len(c.blocks))
	defer c.evHandler("chain: ValidateChain: completed")

	return validateBlocks(c.blocks, c.evHandler)
}

// CreateBlock builds an unmined block on top of the current tip from the
// transaction pool. Transactions that fail validation are left out.
func (c *Chain) CreateBlock(pool []database.Tx, difficulty uint32) database.Block {
	c.mu.RLock()
	tip := c.blocks[len(c.blocks)-1]
	c.mu.RUnlock()

	trans := make([]database.Tx, 0, len(pool))
	for _, tx := range pool {
		if err := tx.Validate(); err != nil {
			c.evHandler("chain: CreateBlock: excluding tx[%s]: %s", tx, err)
			continue
		}
		trans = append(trans, tx)
	}

	b := database.NewBlock(trans, tip.Hash())
	b.Header.Difficulty = difficulty
	b.ComputeHash()

	c.evHandler("chain: CreateBlock: blk[%s]: trans[%d]: excluded[%d]", b, len(trans), len(pool)-len(trans))

	return b
}

// MineBlock creates a block from the pool, performs the work with the
// specified number of workers, and adds the solved block to the chain.
func (c *Chain) MineBlock(ctx context.Context, pool []database.Tx, difficulty uint32, workers int) (database.Block, error) {
	block := c.CreateBlock(pool, difficulty)

	solved, err := miner.Mine(ctx, block, workers, c.evHandler)
	if err != nil {
		return database.Block{}, fmt.Errorf("mining block: %w", err)
	}

	if err := c.AddBlock(solved); err != nil {
		return database.Block{}, err
	}

	return solved, nil
}

// Reset truncates the chain back to its genesis block.
func (c *Chain) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	genBlock := c.blocks[0]

	if c.storage != nil {
		if err := c.storage.Reset(); err != nil {
			return fmt.Errorf("resetting storage: %w", err)
		}
		if err := c.storage.Write(database.NewBlockData(0, genBlock)); err != nil {
			return fmt.Errorf("writing genesis: %w", err)
		}
	}

	c.blocks = []database.Block{genBlock}
	c.evHandler("chain: Reset: back to genesis[%s]", genBlock)

	return nil
}

// =============================================================================

// Genesis returns the genesis configuration the chain was built from.
func (c *Chain) Genesis() genesis.Genesis {
	return c.genesis
}

// Len returns the number of blocks, genesis included.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks)
}

// Tip returns a copy of the last block.
func (c *Chain) Tip() database.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blocks[len(c.blocks)-1].Clone()
}

// Block returns a copy of the block at the specified number.
func (c *Chain) Block(num uint64) (database.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if num >= uint64(len(c.blocks)) {
		return database.Block{}, fmt.Errorf("%w: %d, tip is %d", ErrBlockNotFound, num, len(c.blocks)-1)
	}

	return c.blocks[num].Clone(), nil
}

// Blocks returns a copy of every block in the chain.
func (c *Chain) Blocks() []database.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blocks := make([]database.Block, len(c.blocks))
	for i, block := range c.blocks {
		blocks[i] = block.Clone()
	}

	return blocks
}

// Serialize concatenates the canonical strings of every block in order.
func (c *Chain) Serialize() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	for _, block := range c.blocks {
		sb.WriteString(block.Serialize())
	}

	return sb.String()
}

// =============================================================================

// load reads every block from storage in order.
func load(storage database.Serializer) ([]database.Block, error) {
	var blocks []database.Block

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w", len(blocks), err)
		}

		if blockData.Number != uint64(len(blocks)) {
			return nil, fmt.Errorf("%w: block %d stored as number %d", database.ErrIntegrityViolation, len(blocks), blockData.Number)
		}

		block, err := database.ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// validateBlocks performs the checks of ValidateChain over a list of blocks.
// The genesis block is not required to carry work.
func validateBlocks(blocks []database.Block, ev EventHandler) error {
	for i, block := range blocks {
		ev("chain: validate: blk[%d]: check: merkle root and hash", i)
		if err := block.VerifyIntegrity(); err != nil {
			return fmt.Errorf("blk[%d]: %w", i, err)
		}

		if i == 0 {
			continue
		}

		ev("chain: validate: blk[%d]: check: prev hash", i)
		if err := block.ValidateLink(blocks[i-1]); err != nil {
			return fmt.Errorf("blk[%d]: %w", i, err)
		}

		ev("chain: validate: blk[%d]: check: work", i)
		if err := block.VerifyWork(); err != nil {
			return fmt.Errorf("blk[%d]: %w", i, err)
		}
	}

	return nil
}
