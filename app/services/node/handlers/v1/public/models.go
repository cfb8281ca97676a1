package public

import (
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/nameservice"
)

type blockSummary struct {
	Number     uint64 `json:"number"`
	Hash       string `json:"hash"`
	PrevHash   string `json:"prev_block_hash"`
	MerkleRoot string `json:"merkle_root"`
	TimeStamp  uint64 `json:"timestamp"`
	Nonce      uint32 `json:"nonce"`
	Difficulty uint32 `json:"difficulty"`
	Trans      int    `json:"trans"`
}

func toBlockSummary(num uint64, b database.Block) blockSummary {
	return blockSummary{
		Number:     num,
		Hash:       b.Hash(),
		PrevHash:   b.PrevHash(),
		MerkleRoot: b.MerkleRoot(),
		TimeStamp:  b.Header.TimeStamp,
		Nonce:      b.Header.Nonce,
		Difficulty: b.Header.Difficulty,
		Trans:      len(b.Trans),
	}
}

type chainInfo struct {
	Length int            `json:"length"`
	Tip    string         `json:"tip"`
	Blocks []blockSummary `json:"blocks"`
}

type validation struct {
	Valid  bool   `json:"valid"`
	Blocks int    `json:"blocks"`
	Error  string `json:"error,omitempty"`
}

type output struct {
	Amount        uint64 `json:"amount"`
	PublicKeyHash string `json:"public_key_hash"`
	Name          string `json:"name"`
}

type tx struct {
	ID        string          `json:"txid"`
	TimeStamp uint64          `json:"timestamp"`
	Inputs    []database.TxIn `json:"inputs"`
	Outputs   []output        `json:"outputs"`
	Signature string          `json:"signature"`
}

type block struct {
	blockSummary
	Trans []tx `json:"transactions"`
}

func toBlock(num uint64, b database.Block, ns *nameservice.NameService) block {
	trans := make([]tx, len(b.Trans))
	for i, t := range b.Trans {
		outs := make([]output, len(t.Outputs))
		for j, out := range t.Outputs {
			outs[j] = output{
				Amount:        out.Amount,
				PublicKeyHash: out.PublicKeyHash,
				Name:          ns.Lookup(out.PublicKeyHash),
			}
		}

		trans[i] = tx{
			ID:        t.ID,
			TimeStamp: t.TimeStamp,
			Inputs:    t.Inputs,
			Outputs:   outs,
			Signature: t.Signature,
		}
	}

	return block{
		blockSummary: toBlockSummary(num, b),
		Trans:        trans,
	}
}

// =============================================================================

// NewTx is the payload for one transaction of a block to mine.
type NewTx struct {
	Inputs  []database.TxIn  `json:"inputs"`
	Outputs []database.TxOut `json:"outputs"`
}

// MineRequest is the payload for mining a block onto the chain.
type MineRequest struct {
	Difficulty   uint32  `json:"difficulty" validate:"lte=32"`
	Workers      int     `json:"workers" validate:"gte=0,lte=64"`
	Transactions []NewTx `json:"transactions" validate:"required,min=1"`
}
