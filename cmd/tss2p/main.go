// Command tss2p runs both parties of the two-party signing protocols in one
// process. It is a demonstration and test harness: real deployments run P1
// and P2 on different machines and move messages between them.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "tss2p",
		Usage: "two-party threshold ECDSA on secp256k1",
		Flags: globalFlags,
		Commands: []*cli.Command{
			keygenCommand,
			refreshCommand,
			signCommand,
			verifyCommand,
			pubkeyCommand,
			partyKeysCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
