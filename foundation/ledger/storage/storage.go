// Package storage selects a block storage implementation by name.
package storage

import (
	"fmt"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/storage/badgerdb"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/storage/disk"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/storage/memory"
)

// Set of storage kinds that can be opened.
const (
	Memory = "memory"
	Disk   = "disk"
	Badger = "badger"
)

// Open constructs the block storage of the specified kind. The path is
// ignored for memory storage.
func Open(kind string, path string) (database.Serializer, error) {
	switch kind {
	case Memory:
		return memory.New()

	case Disk:
		return disk.New(path)

	case Badger:
		return badgerdb.New(badgerdb.Config{Path: path})
	}

	return nil, fmt.Errorf("unknown storage %q, expecting %s, %s or %s", kind, Memory, Disk, Badger)
}
