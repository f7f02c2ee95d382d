// mirrorkeepd keeps a canonical repository, its disaster-recovery mirrors,
// and this instance's local working copy in agreement. It runs the
// reconciliation loop as a daemon and exposes one-shot replication commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
