package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a stored chain and validate every block",
	RunE:  validateRun,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateRun(cmd *cobra.Command, args []string) error {
	c, closeStore, err := openChain(nil)
	if err != nil {
		pterm.Error.Printfln("chain is INVALID: %s", err)
		return err
	}
	defer closeStore()

	if err := c.ValidateChain(); err != nil {
		pterm.Error.Printfln("chain is INVALID: %s", err)
		return err
	}

	pterm.Success.Printfln("chain is VALID: blocks[%d] tip[%s]", c.Len(), c.Tip().Hash())

	return nil
}
