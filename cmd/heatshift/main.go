// Command heatshift runs heating-transition simulations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/felixgeelhaar/heatshift/interfaces/cli"
)

func main() {
	app := cli.New()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
