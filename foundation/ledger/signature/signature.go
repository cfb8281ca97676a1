// Package signature provides the signing capabilities handed to the ledger
// when transactions are signed. The ledger only stores the strings these
// produce, verification happens here.
package signature

import (
	"errors"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
)

// ErrInvalidSignature is returned when a signature does not verify against
// the data and public key.
var ErrInvalidSignature = errors.New("invalid signature")

// Both signers satisfy the ledger's signing capability.
var (
	_ database.Signer = (*ECDSA)(nil)
	_ database.Signer = (*Schnorr)(nil)
)
