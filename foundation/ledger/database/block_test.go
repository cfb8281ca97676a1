package database_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/hashing"
)

func newTx(i int) database.Tx {
	ins := []database.TxIn{{PrevTxID: "prev" + string(rune('a'+i)), OutputIndex: uint32(i), Signature: "sig", PublicKey: "key"}}
	outs := []database.TxOut{{Amount: uint64(100 + i), PublicKeyHash: "addr"}}
	return database.NewTxAt(ins, outs, 1000)
}

// =============================================================================

func Test_EndToEnd(t *testing.T) {
	t.Log("Given a single transaction block to mine.")
	{
		in := database.TxIn{PrevTxID: "prev", OutputIndex: 0, Signature: "sig", PublicKey: "key"}
		out := database.TxOut{Amount: 100, PublicKeyHash: "addr"}
		tx := database.NewTx([]database.TxIn{in}, []database.TxOut{out})

		if !hashing.IsDigest(tx.ID) {
			t.Fatalf("\t%s\tShould have a 64 character hex txid: %q", failed, tx.ID)
		}
		t.Logf("\t%s\tShould have a 64 character hex txid.", success)

		block := database.NewBlock([]database.Tx{tx}, "")
		block.ComputeMerkleRoot()
		if block.MerkleRoot() != tx.ID {
			t.Fatalf("\t%s\tShould use the txid as the merkle root.", failed)
		}
		t.Logf("\t%s\tShould use the txid as the merkle root.", success)

		block.Header.Difficulty = 4
		block.Mine()
		if block.Hash()[0] != '0' {
			t.Fatalf("\t%s\tShould mine a hash starting with 0: %s", failed, block.Hash())
		}
		t.Logf("\t%s\tShould mine a hash starting with 0.", success)

		if err := block.Verify(); err != nil {
			t.Fatalf("\t%s\tShould verify the mined block: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the mined block.", success)
	}
}

func Test_MerkleRoot(t *testing.T) {
	t.Log("Given the need to commit a block to its transactions.")
	{
		var empty database.Block
		empty.ComputeMerkleRoot()
		if empty.MerkleRoot() != "" {
			t.Fatalf("\t%s\tShould leave the root unset for a block without transactions.", failed)
		}
		t.Logf("\t%s\tShould leave the root unset for a block without transactions.", success)

		kept := database.Block{Header: database.BlockHeader{MerkleRoot: "placeholder"}}
		kept.ComputeMerkleRoot()
		if kept.MerkleRoot() != "placeholder" {
			t.Fatalf("\t%s\tShould keep the prior root for a block without transactions.", failed)
		}
		t.Logf("\t%s\tShould keep the prior root for a block without transactions.", success)

		var trans []database.Tx
		for i := 0; i < 8; i++ {
			trans = append(trans, newTx(i))
		}

		b1 := database.NewBlock(trans, "")
		b2 := database.NewBlock(trans, "")
		if b1.MerkleRoot() != b2.MerkleRoot() || !hashing.IsDigest(b1.MerkleRoot()) {
			t.Fatalf("\t%s\tShould compute the same hex root for the same transactions.", failed)
		}
		t.Logf("\t%s\tShould compute the same hex root for the same transactions.", success)

		swapped := database.NewBlock([]database.Tx{trans[1], trans[0]}, "")
		ordered := database.NewBlock([]database.Tx{trans[0], trans[1]}, "")
		if swapped.MerkleRoot() == ordered.MerkleRoot() {
			t.Fatalf("\t%s\tShould compute a different root when the order changes.", failed)
		}
		t.Logf("\t%s\tShould compute a different root when the order changes.", success)

		tampered := trans[0].Clone()
		tampered.Outputs[0].Amount = 200
		tampered.Rehash()
		changed := database.NewBlock([]database.Tx{tampered, trans[1]}, "")
		if changed.MerkleRoot() == ordered.MerkleRoot() {
			t.Fatalf("\t%s\tShould compute a different root when an amount changes.", failed)
		}
		t.Logf("\t%s\tShould compute a different root when an amount changes.", success)

		trans[0].Outputs[0].Amount = 1
		if b1.Trans[0].Outputs[0].Amount == 1 {
			t.Fatalf("\t%s\tShould own a copy of its transactions.", failed)
		}
		t.Logf("\t%s\tShould own a copy of its transactions.", success)
	}
}

func Test_HeaderHash(t *testing.T) {
	t.Log("Given the need to hash block headers.")
	{
		header := database.BlockHeader{
			Version:       1,
			PrevBlockHash: "genesis",
			MerkleRoot:    "transactions",
			TimeStamp:     1000000,
			Nonce:         42,
			Difficulty:    1,
		}

		const exp = "10000001genesistransactions421"
		if got := header.Serialize(); got != exp {
			t.Logf("\t%s\tgot: %s", failed, got)
			t.Logf("\t%s\texp: %s", failed, exp)
			t.Fatalf("\t%s\tShould serialize timestamp, version, links, nonce and difficulty.", failed)
		}
		t.Logf("\t%s\tShould serialize timestamp, version, links, nonce and difficulty.", success)

		b1 := database.Block{Header: header}
		b1.ComputeHash()
		if b1.Hash() != hashing.Hex(exp) {
			t.Fatalf("\t%s\tShould hash the header serialization for an empty block.", failed)
		}
		t.Logf("\t%s\tShould hash the header serialization for an empty block.", success)

		first := b1.Hash()
		b1.ComputeHash()
		if b1.Hash() != first || b1.IsStale() {
			t.Fatalf("\t%s\tShould reproduce the same hash when nothing changed.", failed)
		}
		t.Logf("\t%s\tShould reproduce the same hash when nothing changed.", success)

		b2 := database.Block{Header: header}
		b2.Header.Difficulty = 2
		b2.ComputeHash()
		if b2.Hash() == b1.Hash() {
			t.Fatalf("\t%s\tShould get a different hash for a different difficulty.", failed)
		}
		t.Logf("\t%s\tShould get a different hash for a different difficulty.", success)

		b3 := database.Block{Header: header, Trans: []database.Tx{newTx(0)}}
		b3.ComputeHash()
		if b3.Hash() == b1.Hash() {
			t.Fatalf("\t%s\tShould include the transactions in the block hash.", failed)
		}
		t.Logf("\t%s\tShould include the transactions in the block hash.", success)

		b1.Header.Nonce++
		if !b1.IsStale() {
			t.Fatalf("\t%s\tShould report a stale hash after the nonce changes.", failed)
		}
		t.Logf("\t%s\tShould report a stale hash after the nonce changes.", success)
	}
}

func Test_Mine(t *testing.T) {
	tt := []struct {
		name       string
		difficulty uint32
		zeros      int
	}{
		{"zero", 0, 0},
		{"remainder-bits", 3, 0},
		{"one-digit", 4, 1},
		{"two-digits", 8, 2},
		{"truncated", 11, 2},
		{"three-digits", 12, 3},
	}

	t.Log("Given the need to mine blocks at different difficulties.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				block := database.NewBlock([]database.Tx{newTx(testID)}, "prev")
				block.Header.Difficulty = tst.difficulty
				block.Header.Nonce = 7

				block.Mine()

				if block.Header.Nonce <= 7 {
					t.Fatalf("\t%s\tTest %d:\tShould resume from the current nonce.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould resume from the current nonce.", success, testID)

				if !strings.HasPrefix(block.Hash(), strings.Repeat("0", tst.zeros)) {
					t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros: %s", failed, testID, tst.zeros, block.Hash())
				}
				t.Logf("\t%s\tTest %d:\tShould have %d leading zeros.", success, testID, tst.zeros)

				if block.CalculateHash() != block.Hash() {
					t.Fatalf("\t%s\tTest %d:\tShould store the hash of the final nonce.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould store the hash of the final nonce.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_MineCancel(t *testing.T) {
	t.Log("Given a difficulty that cannot be solved.")
	{
		block := database.NewBlock([]database.Tx{newTx(0)}, "prev")
		block.Header.Difficulty = 256

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := block.MineContext(ctx, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("\t%s\tShould stop when the context is done: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop when the context is done.", success)
	}
}

func Test_Verify(t *testing.T) {
	mined := func() database.Block {
		b := database.NewBlock([]database.Tx{newTx(0), newTx(1), newTx(2)}, "prev")
		b.Header.Difficulty = 8
		b.Mine()
		return b
	}

	tt := []struct {
		name   string
		mutate func(b *database.Block)
		err    error
	}{
		{"valid", func(b *database.Block) {}, nil},
		{"merkle", func(b *database.Block) { b.Trans[0], b.Trans[1] = b.Trans[1], b.Trans[0] }, database.ErrIntegrityViolation},
		{"hash", func(b *database.Block) { b.Header.TimeStamp++ }, database.ErrIntegrityViolation},
		{"txid", func(b *database.Block) {
			b.Trans[2].Outputs[0].Amount = 1
			b.ComputeMerkleRoot()
			b.ComputeHash()
		}, database.ErrIntegrityViolation},
		{"work", func(b *database.Block) {
			b.Header.Difficulty = 64
			b.ComputeHash()
		}, database.ErrInsufficientWork},
	}

	t.Log("Given the need to verify a block on its own.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				b := mined()
				tst.mutate(&b)

				err := b.Verify()
				switch {
				case tst.err == nil && err != nil:
					t.Fatalf("\t%s\tTest %d:\tShould verify: %v", failed, testID, err)
				case tst.err != nil && !errors.Is(err, tst.err):
					t.Fatalf("\t%s\tTest %d:\tShould fail with %v, got %v", failed, testID, tst.err, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the expected result.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_BlockData(t *testing.T) {
	t.Log("Given the need to convert blocks for storage.")
	{
		b := database.NewBlock([]database.Tx{newTx(0)}, "prev")
		b.ComputeHash()

		bd := database.NewBlockData(3, b)
		back, err := database.ToBlock(bd)
		if err != nil {
			t.Fatalf("\t%s\tShould convert back to a block: %v", failed, err)
		}
		if back.Hash() != b.Hash() || back.CalculateHash() != b.Hash() {
			t.Fatalf("\t%s\tShould keep the block content.", failed)
		}
		t.Logf("\t%s\tShould convert back to a block.", success)

		bd.Hash = hashing.Hex("other")
		if _, err := database.ToBlock(bd); !errors.Is(err, database.ErrIntegrityViolation) {
			t.Fatalf("\t%s\tShould refuse data whose hash copies disagree: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse data whose hash copies disagree.", success)
	}
}
