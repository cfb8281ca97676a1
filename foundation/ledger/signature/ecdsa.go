package signature

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ECDSA signs with a secp256k1 private key.
type ECDSA struct {
	privateKey *ecdsa.PrivateKey
}

// NewECDSA constructs a signer for the specified private key.
func NewECDSA(privateKey *ecdsa.PrivateKey) *ECDSA {
	return &ECDSA{privateKey: privateKey}
}

// GenerateECDSA constructs a signer with a new random key.
func GenerateECDSA() (*ECDSA, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	return NewECDSA(privateKey), nil
}

// LoadECDSA constructs a signer from a hex encoded key file.
func LoadECDSA(path string) (*ECDSA, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %s: %w", path, err)
	}

	return NewECDSA(privateKey), nil
}

// Save writes the private key to a hex encoded key file.
func (e *ECDSA) Save(path string) error {
	return crypto.SaveECDSA(path, e.privateKey)
}

// Sign produces the 65 byte [R|S|V] signature of the stamped data as a
// 0x prefixed hex string.
func (e *ECDSA) Sign(data []byte) (string, error) {
	sig, err := crypto.Sign(stamp(data), e.privateKey)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// PublicKey returns the uncompressed public key as a 0x prefixed hex string.
func (e *ECDSA) PublicKey() string {
	return hexutil.Encode(crypto.FromECDSAPub(&e.privateKey.PublicKey))
}

// Address returns the account address derived from the public key. This is
// the value used as the public key hash of an output.
func (e *ECDSA) Address() string {
	return crypto.PubkeyToAddress(e.privateKey.PublicKey).Hex()
}

// =============================================================================

// VerifyECDSA checks the signature was produced over the data by the owner
// of the public key.
func VerifyECDSA(data []byte, sig string, publicKey string) error {
	sigBytes, err := hexutil.Decode(sig)
	if err != nil {
		return fmt.Errorf("%w: decoding signature: %s", ErrInvalidSignature, err)
	}
	if len(sigBytes) != crypto.SignatureLength {
		return fmt.Errorf("%w: signature length %d", ErrInvalidSignature, len(sigBytes))
	}

	pubBytes, err := hexutil.Decode(publicKey)
	if err != nil {
		return fmt.Errorf("%w: decoding public key: %s", ErrInvalidSignature, err)
	}

	// The recovery id is not part of the verification.
	rs := sigBytes[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(pubBytes, stamp(data), rs) {
		return ErrInvalidSignature
	}

	return nil
}

// RecoverAddress extracts the address of the account that signed the data.
//
// NOTE: If the exact data that was signed is not provided a different but
// valid looking address comes back.
func RecoverAddress(data []byte, sig string) (string, error) {
	sigBytes, err := hexutil.Decode(sig)
	if err != nil {
		return "", fmt.Errorf("%w: decoding signature: %s", ErrInvalidSignature, err)
	}

	publicKey, err := crypto.SigToPub(stamp(data), sigBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}

// stamp returns a hash of 32 bytes that represents the data with the ledger
// stamp embedded into the final hash.
func stamp(data []byte) []byte {

	// Hash the data into a 32 byte array. This will provide a data length
	// consistency with all data.
	dataHash := crypto.Keccak256(data)

	// This stamp is used so signatures we produce when signing data are
	// always unique to this ledger.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, dataHash)
}
