// Package badgerdb implements the ability to read and write blocks to a
// Badger key-value store, one key per block number.
package badgerdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a block number has not been written.
var ErrNotFound = errors.New("block does not exist")

// Config represents the settings for opening the store. An in memory store
// ignores the path.
type Config struct {
	Path     string
	InMemory bool
}

// BadgerDB represents the serialization implementation for reading and
// storing blocks in Badger. This implements the database.Serializer
// interface.
type BadgerDB struct {
	db *badger.DB
}

// New opens the Badger store described by the configuration.
func New(cfg Config) (*BadgerDB, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}

	return &BadgerDB{db: db}, nil
}

// Close releases the store.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}

// Write stores the block under its number. Blocks must be written in order
// starting with block 0 and an existing block is never replaced.
func (b *BadgerDB) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key(blockData.Number))
		if err == nil {
			return fmt.Errorf("block %d already exists", blockData.Number)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if blockData.Number > 0 {
			if _, err := txn.Get(key(blockData.Number - 1)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("block %d is out of order, block %d missing", blockData.Number, blockData.Number-1)
				}
				return err
			}
		}

		return txn.Set(key(blockData.Number), data)
	})
}

// GetBlock returns the specified block by number.
func (b *BadgerDB) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(num))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %d", ErrNotFound, num)
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &blockData)
		})
	})

	if err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 0.
func (b *BadgerDB) ForEach() database.Iterator {
	return &badgerIterator{store: b}
}

// Reset drops every block from the store.
func (b *BadgerDB) Reset() error {
	return b.db.DropPrefix([]byte(prefix))
}

// =============================================================================

const prefix = "block:"

// key zero pads the number so keys sort in block order.
func key(num uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefix, num))
}

// badgerIterator represents the iteration implementation for walking
// through the blocks in the store. This implements the database Iterator
// interface.
type badgerIterator struct {
	store   *BadgerDB // Access to the storage API.
	current uint64    // Current block number being iterated over.
	eoc     bool      // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the store.
func (bi *badgerIterator) Next() (database.BlockData, error) {
	if bi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := bi.store.GetBlock(bi.current)
	if errors.Is(err, ErrNotFound) {
		bi.eoc = true
	}

	bi.current++

	return blockData, err
}

// Done returns the end of chain value.
func (bi *badgerIterator) Done() bool {
	return bi.eoc
}
