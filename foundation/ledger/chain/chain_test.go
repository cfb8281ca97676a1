package chain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/chain"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/genesis"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// difficulty keeps mining in tests to a few hundred attempts.
const difficulty = 8

func newTx(i int) database.Tx {
	return database.NewTxAt(
		[]database.TxIn{{PrevTxID: "prev", OutputIndex: uint32(i), Signature: "sig", PublicKey: "key"}},
		[]database.TxOut{{Amount: uint64(100 + i), PublicKeyHash: "addr"}},
		uint64(1000+i),
	)
}

func minedBlock(t *testing.T, c *chain.Chain, trans ...database.Tx) database.Block {
	b := c.CreateBlock(trans, difficulty)
	if err := b.MineContext(context.Background(), nil); err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}
	return b
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start a chain from a known genesis block.")
	{
		c1 := chain.New()
		c2 := chain.New()

		if c1.Len() != 1 {
			t.Fatalf("\t%s\tShould start with one block, got %d", failed, c1.Len())
		}
		t.Logf("\t%s\tShould start with one block.", success)

		gen := c1.Tip()
		if gen.PrevHash() != genesis.PrevBlockHash || gen.MerkleRoot() != genesis.MerkleRoot || gen.Header.Nonce != 0 {
			t.Fatalf("\t%s\tShould build the hardcoded genesis: %+v", failed, gen.Header)
		}
		t.Logf("\t%s\tShould build the hardcoded genesis.", success)

		if gen.Hash() != c2.Tip().Hash() || gen.Hash() != chain.GenesisBlock(genesis.Default()).Hash() {
			t.Fatalf("\t%s\tShould build the same genesis every time.", failed)
		}
		t.Logf("\t%s\tShould build the same genesis every time.", success)

		if gen.IsStale() {
			t.Fatalf("\t%s\tShould have the genesis hash computed.", failed)
		}
		t.Logf("\t%s\tShould have the genesis hash computed.", success)

		if err := c1.ValidateChain(); err != nil {
			t.Fatalf("\t%s\tShould validate a chain holding only genesis: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate a chain holding only genesis.", success)
	}
}

func Test_MinedGenesis(t *testing.T) {
	t.Log("Given the need to mine the genesis block.")
	{
		gen := genesis.Default()
		gen.Mined = true
		gen.Difficulty = difficulty

		c, err := chain.Open(chain.Config{Genesis: gen})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the chain: %v", failed, err)
		}

		tip := c.Tip()
		if tip.Header.TimeStamp == genesis.TimeStamp {
			t.Fatalf("\t%s\tShould stamp the genesis with the current time.", failed)
		}
		if err := tip.VerifyWork(); err != nil {
			t.Fatalf("\t%s\tShould mine the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould mine the genesis block with the current time.", success)
	}
}

func Test_AddBlock(t *testing.T) {
	type table struct {
		name   string
		change func(b *database.Block)
		err    error
	}

	tt := []table{
		{
			name:   "valid",
			change: func(b *database.Block) {},
		},
		{
			name: "prev-hash",
			change: func(b *database.Block) {
				b.Header.PrevBlockHash = "0"
				b.Mine()
			},
			err: database.ErrLinkageMismatch,
		},
		{
			name: "merkle-root",
			change: func(b *database.Block) {
				b.Trans[0].Outputs[0].Amount = 1
				b.Trans[0].Rehash()
			},
			err: database.ErrIntegrityViolation,
		},
		{
			name: "stale-txid",
			change: func(b *database.Block) {
				b.Trans[1].Outputs[0].Amount = 1_000_000
				b.ComputeMerkleRoot()
				b.Mine()
			},
			err: database.ErrIntegrityViolation,
		},
		{
			name: "stale-hash",
			change: func(b *database.Block) {
				b.Header.Nonce++
			},
			err: database.ErrIntegrityViolation,
		},
		{
			name: "work",
			change: func(b *database.Block) {
				b.Header.Difficulty = 128
				b.ComputeHash()
			},
			err: database.ErrInsufficientWork,
		},
	}

	t.Log("Given the need to only append blocks that pass every check.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				c := chain.New()

				b := minedBlock(t, c, newTx(1), newTx(2))
				tst.change(&b)

				err := c.AddBlock(b)

				if tst.err == nil {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept the block: %v", failed, testID, err)
					}
					if c.Len() != 2 || c.Tip().Hash() != b.Hash() {
						t.Fatalf("\t%s\tTest %d:\tShould make the block the new tip.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould accept the block as the new tip.", success, testID)
					return
				}

				if !errors.Is(err, tst.err) {
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
					t.Fatalf("\t%s\tTest %d:\tShould reject the block with the right error.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the block with the right error.", success, testID)

				if c.Len() != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched, len %d", failed, testID, c.Len())
				}
				t.Logf("\t%s\tTest %d:\tShould leave the chain untouched.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Ownership(t *testing.T) {
	t.Log("Given the need for the chain to own its blocks.")
	{
		c := chain.New()

		b := minedBlock(t, c, newTx(1))
		if err := c.AddBlock(b); err != nil {
			t.Fatalf("\t%s\tShould accept the block: %v", failed, err)
		}

		b.Trans[0].Outputs[0].Amount = 1
		tip := c.Tip()
		tip.Trans[0].Outputs[0].Amount = 2
		for _, blk := range c.Blocks() {
			if len(blk.Trans) > 0 {
				blk.Trans[0].Outputs[0].Amount = 3
			}
		}

		if err := c.ValidateChain(); err != nil {
			t.Fatalf("\t%s\tShould not be changed through blocks handed in or out: %v", failed, err)
		}
		if got, _ := c.Block(1); got.Trans[0].Outputs[0].Amount != 101 {
			t.Fatalf("\t%s\tShould not be changed through blocks handed in or out.", failed)
		}
		t.Logf("\t%s\tShould not be changed through blocks handed in or out.", success)
	}
}

func Test_CreateBlock(t *testing.T) {
	t.Log("Given the need to build a block from a transaction pool.")
	{
		c := chain.New()

		noInputs := database.NewTxAt(nil, []database.TxOut{{Amount: 1, PublicKeyHash: "addr"}}, 1)
		zeroAmount := database.NewTxAt([]database.TxIn{{PrevTxID: "prev"}}, []database.TxOut{{Amount: 0, PublicKeyHash: "addr"}}, 2)

		b := c.CreateBlock([]database.Tx{newTx(1), noInputs, newTx(2), zeroAmount}, difficulty)

		if len(b.Trans) != 2 || b.Trans[0].ID != newTx(1).ID || b.Trans[1].ID != newTx(2).ID {
			t.Fatalf("\t%s\tShould leave out invalid transactions, got %d", failed, len(b.Trans))
		}
		t.Logf("\t%s\tShould leave out invalid transactions and keep the order.", success)

		if b.PrevHash() != c.Tip().Hash() || b.Header.Difficulty != difficulty {
			t.Fatalf("\t%s\tShould build on the tip with the difficulty: %+v", failed, b.Header)
		}
		t.Logf("\t%s\tShould build on the tip with the difficulty.", success)

		if root, _ := b.CalculateMerkleRoot(); root != b.MerkleRoot() {
			t.Fatalf("\t%s\tShould compute the merkle root.", failed)
		}
		t.Logf("\t%s\tShould compute the merkle root.", success)
	}
}

func Test_MineBlock(t *testing.T) {
	t.Log("Given the need to mine blocks onto the chain.")
	{
		var events int
		c, err := chain.Open(chain.Config{
			EvHandler: func(v string, args ...any) { events++ },
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the chain: %v", failed, err)
		}

		for i, workers := range []int{1, 4} {
			b, err := c.MineBlock(context.Background(), []database.Tx{newTx(i)}, difficulty, workers)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to mine with %d workers: %v", failed, workers, err)
			}
			if c.Tip().Hash() != b.Hash() {
				t.Fatalf("\t%s\tShould make the mined block the tip.", failed)
			}
		}
		t.Logf("\t%s\tShould be able to mine blocks with one or many workers.", success)

		if c.Len() != 3 {
			t.Fatalf("\t%s\tShould have 3 blocks, got %d", failed, c.Len())
		}
		if err := c.ValidateChain(); err != nil {
			t.Fatalf("\t%s\tShould validate the mined chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate the mined chain.", success)

		if events == 0 {
			t.Fatalf("\t%s\tShould report events to the handler.", failed)
		}
		t.Logf("\t%s\tShould report events to the handler.", success)

		if _, err := c.Block(3); !errors.Is(err, chain.ErrBlockNotFound) {
			t.Fatalf("\t%s\tShould report a block past the tip: %v", failed, err)
		}
		t.Logf("\t%s\tShould report a block past the tip.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.MineBlock(ctx, []database.Tx{newTx(9)}, 256, 2); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop mining when cancelled: %v", failed, err)
		}
		if c.Len() != 3 {
			t.Fatalf("\t%s\tShould not add a block when mining is cancelled.", failed)
		}
		t.Logf("\t%s\tShould stop mining when cancelled.", success)
	}
}

func Test_Storage(t *testing.T) {
	t.Log("Given the need to persist the chain and load it back.")
	{
		mem, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct storage: %v", failed, err)
		}

		c, err := chain.Open(chain.Config{Storage: mem})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open an empty store: %v", failed, err)
		}

		for i := 0; i < 2; i++ {
			if _, err := c.MineBlock(context.Background(), []database.Tx{newTx(i)}, difficulty, 2); err != nil {
				t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, i+1, err)
			}
		}

		loaded, err := chain.Open(chain.Config{Storage: mem})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the stored chain: %v", failed, err)
		}
		if loaded.Len() != 3 || loaded.Tip().Hash() != c.Tip().Hash() || loaded.Serialize() != c.Serialize() {
			t.Fatalf("\t%s\tShould load back the same chain.", failed)
		}
		t.Logf("\t%s\tShould load back the same chain.", success)

		if err := loaded.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset: %v", failed, err)
		}
		again, err := chain.Open(chain.Config{Storage: mem})
		if err != nil || again.Len() != 1 || again.Tip().Hash() != chain.New().Tip().Hash() {
			t.Fatalf("\t%s\tShould be back to genesis after reset: %v", failed, err)
		}
		t.Logf("\t%s\tShould be back to genesis after reset.", success)
	}
}

func Test_TamperedStorage(t *testing.T) {
	type table struct {
		name   string
		tamper func(blocks []database.BlockData)
		err    error
	}

	tt := []table{
		{
			name: "transaction",
			tamper: func(blocks []database.BlockData) {
				blocks[1].Trans[0].Outputs[0].Amount = 1_000_000
			},
			err: database.ErrIntegrityViolation,
		},
		{
			name: "txid",
			tamper: func(blocks []database.BlockData) {
				b, _ := database.ToBlock(blocks[2])
				b.Trans[0].Outputs[0].Amount = 1_000_000
				b.Mine()
				blocks[2] = database.NewBlockData(2, b)
			},
			err: database.ErrIntegrityViolation,
		},
		{
			name: "merkle-root",
			tamper: func(blocks []database.BlockData) {
				blocks[2].Header.MerkleRoot = blocks[1].Header.MerkleRoot
			},
			err: database.ErrIntegrityViolation,
		},
		{
			name: "linkage",
			tamper: func(blocks []database.BlockData) {
				b, _ := database.ToBlock(blocks[2])
				b.Header.PrevBlockHash = blocks[0].Hash
				b.Mine()
				blocks[2] = database.NewBlockData(2, b)
			},
			err: database.ErrLinkageMismatch,
		},
		{
			name: "work",
			tamper: func(blocks []database.BlockData) {
				b, _ := database.ToBlock(blocks[2])
				b.Header.Difficulty = 128
				b.ComputeHash()
				blocks[2] = database.NewBlockData(2, b)
			},
			err: database.ErrInsufficientWork,
		},
		{
			name: "genesis",
			tamper: func(blocks []database.BlockData) {
				b, _ := database.ToBlock(blocks[0])
				b.Header.TimeStamp++
				b.ComputeHash()
				blocks[0] = database.NewBlockData(0, b)
			},
			err: database.ErrIntegrityViolation,
		},
	}

	t.Log("Given the need to detect a chain that was changed after the fact.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				src, _ := memory.New()

				c, err := chain.Open(chain.Config{Storage: src})
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to open the chain: %v", failed, testID, err)
				}
				for i := 0; i < 2; i++ {
					if _, err := c.MineBlock(context.Background(), []database.Tx{newTx(i), newTx(i + 10)}, difficulty, 1); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %v", failed, testID, err)
					}
				}

				blocks := make([]database.BlockData, c.Len())
				for i := range blocks {
					if blocks[i], err = src.GetBlock(uint64(i)); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to read block %d: %v", failed, testID, i, err)
					}
				}

				tst.tamper(blocks)

				dst, _ := memory.New()
				for _, bd := range blocks {
					if err := dst.Write(bd); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, bd.Number, err)
					}
				}

				_, err = chain.Open(chain.Config{Storage: dst})
				if !errors.Is(err, tst.err) {
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
					t.Fatalf("\t%s\tTest %d:\tShould refuse the tampered chain.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould refuse the tampered chain: %v", success, testID, err)
			}

			t.Run(tst.name, f)
		}
	}
}
