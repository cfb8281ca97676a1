package database

import "errors"

// Set of error variables for the integrity failures of the ledger. Callers
// compare with errors.Is, the returned errors carry the details.
var (
	// ErrStructuralInvalid is returned when a transaction has no inputs, no
	// outputs, or an output without value.
	ErrStructuralInvalid = errors.New("transaction is structurally invalid")

	// ErrLinkageMismatch is returned when a block does not point at the hash
	// of the block it is being added after.
	ErrLinkageMismatch = errors.New("previous block hash does not match chain tip")

	// ErrIntegrityViolation is returned when a recomputed hash or merkle
	// root disagrees with the stored value.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrInsufficientWork is returned when a block hash does not meet the
	// block's own difficulty target.
	ErrInsufficientWork = errors.New("block hash does not satisfy difficulty")
)
