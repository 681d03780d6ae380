package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"irsaliye/internal/logger"
	"irsaliye/internal/waybill"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text-file]",
	Short: "Extract waybill fields from already-recognized text",
	Long: `Run the waybill field extractor over plain text, skipping OCR entirely.
Reads the text from a file, or from stdin when no file is given. Useful for
testing extraction heuristics against saved OCR output.`,
	Example: `  # Extract fields from a saved OCR dump
  irsaliye extract waybill.txt

  # Pipe text in and get JSON out
  cat waybill.txt | irsaliye extract --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("json", false, "Output as JSON")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	jsonOutput, _ := cmd.Flags().GetBool("json")

	var text []byte
	var err error
	if len(args) == 1 {
		text, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read text file: %w", err)
		}
	} else {
		text, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	result := waybill.Extract(string(text), nil)

	log.Debug().
		Int("text_length", len(text)).
		Msg("Extraction completed")

	if jsonOutput {
		data, err := json.MarshalIndent(result.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	return writeScanResult(result, "", false)
}
