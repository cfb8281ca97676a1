package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/hashing"
)

// Signer represents the behavior of a signing capability supplied by the
// caller. The ledger stores whatever signature string it returns and never
// implements signature cryptography itself.
type Signer interface {
	Sign(data []byte) (string, error)
}

// =============================================================================

// TxIn refers to an output of a previous transaction that is being spent.
// Ownership is asserted by the signature and public key, not verified here.
type TxIn struct {
	PrevTxID    string `json:"prev_txid"`    // Bitcoin: Transaction that created the output being spent.
	OutputIndex uint32 `json:"output_index"` // Bitcoin: Index of that output in the previous transaction.
	Signature   string `json:"signature"`    // Signature proving ownership of the referenced output.
	PublicKey   string `json:"public_key"`   // Public key used to verify the signature.
}

// TxOut locks a value to the owner of a public key.
type TxOut struct {
	Amount        uint64 `json:"amount"`          // The value locked in this output.
	PublicKeyHash string `json:"public_key_hash"` // Hash of the recipient's public key.
}

// Tx is a value transfer between parties. The ID is derived from the
// canonical serialization and is not meant to be set by hand.
type Tx struct {
	ID        string  `json:"txid"`
	Inputs    []TxIn  `json:"inputs"`
	Outputs   []TxOut `json:"outputs"`
	TimeStamp uint64  `json:"timestamp"` // Milliseconds since the unix epoch.
	Signature string  `json:"signature"`
}

// NewTx constructs a transaction stamped with the current time and computes
// its id.
func NewTx(inputs []TxIn, outputs []TxOut) Tx {
	return NewTxAt(inputs, outputs, uint64(time.Now().UTC().UnixMilli()))
}

// NewTxAt constructs a transaction with the specified timestamp and computes
// its id. Two transactions built from the same values share an id.
func NewTxAt(inputs []TxIn, outputs []TxOut, timeStamp uint64) Tx {
	tx := Tx{
		Inputs:    append([]TxIn(nil), inputs...),
		Outputs:   append([]TxOut(nil), outputs...),
		TimeStamp: timeStamp,
	}
	tx.ID = tx.ComputeHash()

	return tx
}

// Serialize produces the canonical string of the transaction: the timestamp,
// then every input, then every output, with no separators.
//
// NOTE: Without separators "ab"+"c" and "a"+"bc" serialize the same way.
// Changing the format would change every id already recorded in a chain.
func (tx Tx) Serialize() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(tx.TimeStamp, 10))

	for _, in := range tx.Inputs {
		sb.WriteString(in.PrevTxID)
		sb.WriteString(strconv.FormatUint(uint64(in.OutputIndex), 10))
		sb.WriteString(in.Signature)
		sb.WriteString(in.PublicKey)
	}

	for _, out := range tx.Outputs {
		sb.WriteString(strconv.FormatUint(out.Amount, 10))
		sb.WriteString(out.PublicKeyHash)
	}

	return sb.String()
}

// ComputeHash returns the id the transaction should have for its current
// content. The stored ID is not updated.
func (tx Tx) ComputeHash() string {
	return hashing.Of(tx)
}

// Rehash recomputes and stores the id. Required after inputs or outputs are
// changed on a constructed transaction.
func (tx *Tx) Rehash() {
	tx.ID = tx.ComputeHash()
}

// IsStale reports whether the stored id is unset or no longer matches the
// content of the transaction.
func (tx Tx) IsStale() bool {
	return tx.ID == "" || tx.ID != tx.ComputeHash()
}

// Validate checks the structure of the transaction. Signatures and the
// existence of the referenced outputs are not checked.
func (tx Tx) Validate() error {
	if len(tx.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrStructuralInvalid)
	}

	if len(tx.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrStructuralInvalid)
	}

	for i, out := range tx.Outputs {
		if out.Amount == 0 {
			return fmt.Errorf("%w: output %d has zero amount", ErrStructuralInvalid, i)
		}
	}

	return nil
}

// IsValid is the boolean form of Validate.
func (tx Tx) IsValid() bool {
	return tx.Validate() == nil
}

// Sign asks the signer for a signature over the canonical bytes of the
// transaction and stores it. The transaction signature is not part of the
// serialization so the id does not change.
func (tx *Tx) Sign(signer Signer) error {
	sig, err := signer.Sign([]byte(tx.Serialize()))
	if err != nil {
		return fmt.Errorf("signing transaction %s: %w", tx.ID, err)
	}

	tx.Signature = sig
	return nil
}

// Clone returns a deep copy of the transaction.
func (tx Tx) Clone() Tx {
	cpy := tx
	cpy.Inputs = append([]TxIn(nil), tx.Inputs...)
	cpy.Outputs = append([]TxOut(nil), tx.Outputs...)

	return cpy
}

// LeafHash implements the merkle Hashable interface. The leaf of a
// transaction is its stored id.
func (tx Tx) LeafHash() string {
	return tx.ID
}

// Equals implements the merkle Hashable interface. Transactions with the
// same id are the same transaction.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	var value uint64
	for _, out := range tx.Outputs {
		value += out.Amount
	}

	return fmt.Sprintf("%s:in[%d]:out[%d]:value[%d]", shortHash(tx.ID), len(tx.Inputs), len(tx.Outputs), value)
}

// shortHash trims a hash for log lines.
func shortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}
