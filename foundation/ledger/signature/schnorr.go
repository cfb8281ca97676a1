package signature

import (
	"encoding/hex"
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
)

var suite = suites.MustFind("Ed25519")

// Schnorr signs with a Schnorr key pair over Ed25519.
type Schnorr struct {
	private kyber.Scalar
	public  kyber.Point
}

// GenerateSchnorr constructs a signer with a new random key pair.
func GenerateSchnorr() *Schnorr {
	private := suite.Scalar().Pick(suite.RandomStream())

	return &Schnorr{
		private: private,
		public:  suite.Point().Mul(private, nil),
	}
}

// Sign produces the Schnorr signature of the data as a hex string.
func (s *Schnorr) Sign(data []byte) (string, error) {
	sig, err := schnorr.Sign(suite, s.private, data)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sig), nil
}

// PublicKey returns the public point as a hex string.
func (s *Schnorr) PublicKey() string {
	b, err := s.public.MarshalBinary()
	if err != nil {
		return ""
	}

	return hex.EncodeToString(b)
}

// VerifySchnorr checks the signature was produced over the data by the owner
// of the public key.
func VerifySchnorr(data []byte, sig string, publicKey string) error {
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("%w: decoding signature: %s", ErrInvalidSignature, err)
	}

	pubBytes, err := hex.DecodeString(publicKey)
	if err != nil {
		return fmt.Errorf("%w: decoding public key: %s", ErrInvalidSignature, err)
	}

	public := suite.Point()
	if err := public.UnmarshalBinary(pubBytes); err != nil {
		return fmt.Errorf("%w: public key: %s", ErrInvalidSignature, err)
	}

	if err := schnorr.Verify(suite, public, data, sigBytes); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return nil
}
