package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const configFlag = "config"

// main builds the lectern command tree. Business logic lives in the internal
// service packages; commands only wire and run them.
func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lectern",
		Short:         "Instructor identity verification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String(configFlag, "", "path to a YAML config file; environment variables override it")

	cmd.AddCommand(serveCommand(), migrateCommand(), tokenCommand())
	return cmd
}
