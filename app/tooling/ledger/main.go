// This program provides tooling for working with a ledger from the command
// line: keys, a walkthrough demo, and inspecting stored chains.
package main

import "github.com/BenjaminLonguechaud/Blockchain/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
