// Package cmd contains the ledger tooling commands.
package cmd

import (
	"os"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/chain"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/genesis"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/storage"
	"github.com/spf13/cobra"
)

const keyExtension = ".ecdsa"

var (
	storeKind   string
	dbPath      string
	genesisFile string
	accountPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&storeKind, "store", "s", storage.Disk, "Storage holding the chain: disk or badger.")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "zblock/blocks", "Path to the chain storage.")
	rootCmd.PersistentFlags().StringVarP(&genesisFile, "genesis", "g", "", "Genesis file, empty uses the hardcoded genesis.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
}

var rootCmd = &cobra.Command{
	Use:          "ledger",
	Short:        "Tooling for the ledger",
	SilenceUsage: true,
}

// Execute runs the command selected on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openChain opens the stored chain, which validates every block.
func openChain(ev chain.EventHandler) (*chain.Chain, func() error, error) {
	gen := genesis.Default()
	if genesisFile != "" {
		var err error
		if gen, err = genesis.Load(genesisFile); err != nil {
			return nil, nil, err
		}
	}

	store, err := storage.Open(storeKind, dbPath)
	if err != nil {
		return nil, nil, err
	}

	c, err := chain.Open(chain.Config{
		Genesis:   gen,
		Storage:   store,
		EvHandler: ev,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return c, store.Close, nil
}
