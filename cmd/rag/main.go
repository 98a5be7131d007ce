package main

import (
	"fmt"
	"os"

	"github.com/Kumaryan12/mini-rag/cmd/rag/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
