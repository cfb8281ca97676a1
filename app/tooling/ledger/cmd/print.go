package cmd

import (
	"os"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/nameservice"
	"github.com/spf13/cobra"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Render a stored chain",
	RunE:  printRun,
}

func init() {
	rootCmd.AddCommand(printCmd)
}

func printRun(cmd *cobra.Command, args []string) error {
	c, closeStore, err := openChain(nil)
	if err != nil {
		return err
	}
	defer closeStore()

	var ns *nameservice.NameService
	if _, err := os.Stat(accountPath); err == nil {
		if ns, err = nameservice.New(accountPath); err != nil {
			return err
		}
	}

	return renderChain(c.Blocks(), ns)
}
