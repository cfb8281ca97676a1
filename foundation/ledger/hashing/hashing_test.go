package hashing_test

import (
	"testing"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/hashing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type text string

func (t text) Serialize() string { return string(t) }

func Test_Hex(t *testing.T) {
	tt := []struct {
		name string
		data string
		exp  string
	}{
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	t.Log("Given the need to hash data into a hex digest.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := hashing.Hex(tst.data)
				if got != tst.exp {
					t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
					t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
					t.Fatalf("\t%s\tTest %d:\tShould get back the right digest.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the right digest.", success, testID)

				if !hashing.IsDigest(got) {
					t.Fatalf("\t%s\tTest %d:\tShould be 64 lowercase hex characters.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould be 64 lowercase hex characters.", success, testID)

				if hashing.Of(text(tst.data)) != got {
					t.Fatalf("\t%s\tTest %d:\tShould hash a serializable value the same way.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould hash a serializable value the same way.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_IsDigest(t *testing.T) {
	tt := []struct {
		name string
		s    string
		exp  bool
	}{
		{"short", "abc", false},
		{"upper", "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD", false},
		{"prefixed", "0x7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", false},
		{"valid", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", true},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			if got := hashing.IsDigest(tst.s); got != tst.exp {
				t.Fatalf("\t%s\tShould classify %q as %t, got %t.", failed, tst.s, tst.exp, got)
			}
		})
	}
}
