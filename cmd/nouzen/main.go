// cmd/nouzen/main.go
package main

import (
	"fmt"
	"os"

	"github.com/arc-language/nouzen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "E: %v\n", err)
		os.Exit(1)
	}
}
