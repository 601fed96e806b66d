// Command printeta answers ETA questions about a saved cluster state file,
// the same JSON the server returns from /api/v1/snapshot.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
