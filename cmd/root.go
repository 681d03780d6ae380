package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"irsaliye/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "irsaliye",
	Short: "Construction-site waybill backend and tooling",
	Long: `irsaliye tracks material deliveries on construction sites. Field workers
photograph the truck's waybill; the backend reads it, extracts the plate,
material, quantity and supplier, and books the movement against the project.

The serve command runs the HTTP backend. The scan and extract commands run
the same waybill reader directly from the command line for testing.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("irsaliye - construction material tracking")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
