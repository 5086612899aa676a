// Command cellcount-cli segments one image without a window and prints the result as JSON.
package main

import (
	"os"

	"cellcount/internal/app"
	"cellcount/internal/config"
	"cellcount/internal/headless"
)

func main() {
	os.Exit(headless.Run(os.Args[1:], os.Stdout, os.Stderr, build))
}

func build(cfg *config.Config) (*headless.Stack, error) {
	components, err := app.Build(cfg, nil)
	if err != nil {
		return nil, err
	}
	return &headless.Stack{
		Service:   components.Service,
		Lifecycle: components.Lifecycle,
	}, nil
}
