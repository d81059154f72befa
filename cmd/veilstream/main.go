// Command veilstream provides a CLI for publishing and fetching encrypted
// content on the blob network.
package main

import (
	"os"

	"github.com/veilstream/veilstream/cmd/veilstream/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
