// Command rugcheck answers "is this token a rug?" questions from token
// security profiles and reference material. It runs as a CLI or as an HTTP
// service (`rugcheck serve`).
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/rugcheck-go/cmd/rugcheck/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
