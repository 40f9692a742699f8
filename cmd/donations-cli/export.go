package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"donations/internal/core"
	"donations/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		flags   filterFlags
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching donations as CSV or an Excel workbook",
		Example: `  donations-cli export --purpose Health > health.csv
  donations-cli export --format xlsx --out donations.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var write func(io.Writer, []core.Donation) error
			switch strings.ToLower(format) {
			case "csv":
				write = export.WriteCSV
			case "xlsx":
				write = export.WriteXLSX
				if outPath == "" {
					return fmt.Errorf("--out is required for xlsx exports")
				}
			default:
				return fmt.Errorf("unknown format %q (want csv or xlsx)", format)
			}

			f, err := flags.filter()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.donations.List(cmd.Context(), f)
			if err != nil {
				return err
			}

			if outPath == "" {
				return write(cmd.OutOrStdout(), records)
			}
			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			if err := write(file, records); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d donations to %s\n", len(records), outPath)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout for csv)")
	return cmd
}
