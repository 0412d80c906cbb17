package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/forsetihq/flowd/internal/tools/demo"
	"github.com/forsetihq/flowd/internal/tools/migrate"
	"github.com/forsetihq/flowd/internal/tools/purge"
)

func main() {
	root := &cobra.Command{
		Use:   "flowd-admin",
		Short: "Operator tooling for the flowd backend",
	}
	root.AddCommand(
		migrate.NewCommand(),
		purge.NewCommand(),
		demo.NewCommand(),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
