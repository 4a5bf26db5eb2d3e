// Command lumen upgrades HTML pages with the components declared in
// lumen.yaml.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/lumen/cmd/lumen/cmd"
	"github.com/go-drift/lumen/pkg/errors"
)

func main() {
	if err := errors.Guard("lumen", func() error { return cmd.Execute(os.Args[1:]) }); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
