// Command puzzle-feed acquires the daily word-association puzzle answers and
// resolves the freshest servable record.
package main

import (
	"os"

	"github.com/jonesrussell/north-cloud/puzzle-feed/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
