package cmd

import (
	"context"
	"fmt"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/chain"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/merkle"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/miner"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/signature"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	demoDifficulty uint32
	demoWorkers    int
	demoSchnorr    bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through building, mining and validating a chain in memory",
	RunE:  demoRun,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Uint32VarP(&demoDifficulty, "difficulty", "f", 16, "Difficulty in bits for the mined block.")
	demoCmd.Flags().IntVarP(&demoWorkers, "workers", "w", 4, "Number of goroutines mining the block.")
	demoCmd.Flags().BoolVar(&demoSchnorr, "schnorr", false, "Sign with a Schnorr key instead of secp256k1.")
}

// sender is a signer that can also hand out its public key.
type sender interface {
	database.Signer
	PublicKey() string
}

func demoRun(cmd *cobra.Command, args []string) error {
	pterm.DefaultHeader.Println("Ledger Demo")

	pterm.Info.Println("[1] Generate key pairs and derive the receiver address")
	var from sender = signature.GenerateSchnorr()
	if !demoSchnorr {
		key, err := signature.GenerateECDSA()
		if err != nil {
			return err
		}
		from = key
	}

	to, err := signature.GenerateECDSA()
	if err != nil {
		return err
	}
	pterm.Printfln("    sender public key: %s", from.PublicKey())
	pterm.Printfln("    receiver address:  %s", to.Address())

	pterm.Info.Println("[2] Create a chain with the hardcoded genesis block")
	c := chain.New()
	pterm.Printfln("    genesis: %s", c.Tip().Hash())

	pterm.Info.Println("[3] Create and sign a transaction")
	input := database.TxIn{
		PrevTxID:    "0000000000000000000000000000000000000000000000000000000000000000",
		OutputIndex: 0,
		PublicKey:   from.PublicKey(),
	}
	output := database.TxOut{
		Amount:        50,
		PublicKeyHash: to.Address(),
	}
	tx := database.NewTx([]database.TxIn{input}, []database.TxOut{output})
	if err := tx.Sign(from); err != nil {
		return err
	}
	pterm.Printfln("    txid:      %s", tx.ID)
	pterm.Printfln("    timestamp: %d ms", tx.TimeStamp)
	pterm.Printfln("    signature: %s", tx.Signature)

	if err := verify(tx); err != nil {
		return err
	}
	pterm.Printfln("    signature verified")

	pterm.Info.Println("[4] Create a block on the tip")
	block := c.CreateBlock([]database.Tx{tx}, demoDifficulty)
	pterm.Printfln("    merkle root: %s", block.MerkleRoot())

	pterm.Info.Printfln("[5] Mine the block with %d workers at difficulty %d", demoWorkers, demoDifficulty)
	spinner, err := pterm.DefaultSpinner.Start("mining")
	if err != nil {
		return err
	}
	solved, err := miner.Mine(context.Background(), block, demoWorkers, nil)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("mined nonce[%d] hash[%s]", solved.Header.Nonce, solved.Hash()))

	pterm.Info.Println("[6] Prove the transaction is in the block")
	tree, err := merkle.NewTree(solved.Trans)
	if err != nil {
		return err
	}
	proof, order, err := tree.Proof(tx)
	if err != nil {
		return err
	}
	if !merkle.VerifyProof(solved.MerkleRoot(), tx.LeafHash(), proof, order) {
		return fmt.Errorf("proof for tx %s does not reach root %s", tx.ID, solved.MerkleRoot())
	}
	pterm.Printfln("    proof steps[%d] root[%s]", len(proof), tree.RootHex())

	pterm.Info.Println("[7] Add the block to the chain")
	if err := c.AddBlock(solved); err != nil {
		return err
	}

	pterm.Info.Println("[8] Validate the chain")
	if err := c.ValidateChain(); err != nil {
		pterm.Error.Printfln("chain is INVALID: %s", err)
		return err
	}
	pterm.Success.Println("chain is VALID")

	return renderChain(c.Blocks(), nil)
}

// verify checks the signature with the scheme of the sender.
func verify(tx database.Tx) error {
	data := []byte(tx.Serialize())
	publicKey := tx.Inputs[0].PublicKey

	if demoSchnorr {
		return signature.VerifySchnorr(data, tx.Signature, publicKey)
	}
	return signature.VerifyECDSA(data, tx.Signature, publicKey)
}
