// Command parsenumber runs a JSON pipeline that parses a text column into an
// Int or Double column and writes the rewritten rows to a storage backend.
package main

import (
	"os"

	"parsenumber/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.L().WithError(err).Error("parsenumber failed")
		os.Exit(1)
	}
}
