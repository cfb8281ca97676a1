package cmd

import (
	"fmt"
	"strconv"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/nameservice"
	"github.com/pterm/pterm"
)

// renderChain prints every block with its transactions. Known addresses are
// shown by name when a name service is provided.
func renderChain(blocks []database.Block, ns *nameservice.NameService) error {
	name := func(address string) string {
		if ns == nil {
			return address
		}
		return ns.Lookup(address)
	}

	pterm.DefaultSection.Printfln("Chain: %d blocks", len(blocks))

	for i, b := range blocks {
		header := pterm.TableData{
			{"Block", strconv.Itoa(i)},
			{"Hash", b.Hash()},
			{"Prev Hash", b.PrevHash()},
			{"Merkle Root", b.MerkleRoot()},
			{"Timestamp", strconv.FormatUint(b.Header.TimeStamp, 10)},
			{"Nonce", strconv.FormatUint(uint64(b.Header.Nonce), 10)},
			{"Difficulty", strconv.FormatUint(uint64(b.Header.Difficulty), 10)},
		}
		if err := pterm.DefaultTable.WithData(header).Render(); err != nil {
			return err
		}

		if len(b.Trans) == 0 {
			pterm.Println()
			continue
		}

		trans := pterm.TableData{{"TxID", "Inputs", "Outputs", "Signed"}}
		for _, tx := range b.Trans {
			var outs string
			for j, out := range tx.Outputs {
				if j > 0 {
					outs += ", "
				}
				outs += fmt.Sprintf("%d -> %s", out.Amount, name(out.PublicKeyHash))
			}

			trans = append(trans, []string{tx.ID, strconv.Itoa(len(tx.Inputs)), outs, strconv.FormatBool(tx.Signature != "")})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(trans).Render(); err != nil {
			return err
		}

		pterm.Println()
	}

	return nil
}
