// Command esignctl is the offline companion of the API: it generates signing
// keys, fingerprints documents and inspects proof tokens without a ledger.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
