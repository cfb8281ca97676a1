package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/signature"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var keyName string

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate a new secp256k1 key file",
	RunE:  genkeyRun,
}

func init() {
	rootCmd.AddCommand(genkeyCmd)
	genkeyCmd.Flags().StringVarP(&keyName, "name", "n", "private", "Name of the key, the file gets the .ecdsa extension.")
}

func genkeyRun(cmd *cobra.Command, args []string) error {
	name := keyName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}
	path := filepath.Join(accountPath, name)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %s already exists", path)
	}

	if err := os.MkdirAll(accountPath, 0755); err != nil {
		return err
	}

	signer, err := signature.GenerateECDSA()
	if err != nil {
		return err
	}

	if err := signer.Save(path); err != nil {
		return err
	}

	pterm.Success.Printfln("key %s written", path)
	pterm.Info.Printfln("address: %s", signer.Address())

	return nil
}
