package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"donations/internal/core"
	"donations/internal/storage/csvfile"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Append the donations in a CSV file to the configured backend",
		Long: `Append every row of a donations CSV to the configured backend, keeping
the original dates. Both the dated and the legacy four-column layout are
accepted. Nothing is written if any row is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			incoming, undated, err := csvfile.Decode(f, time.Local)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			existing, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			merged := make([]core.Donation, 0, len(existing)+len(incoming))
			merged = append(merged, existing...)
			merged = append(merged, incoming...)
			if err := a.store.Save(cmd.Context(), merged); err != nil {
				return err
			}
			a.reports.Invalidate()

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d donations (%d without a date); %d stored in total\n",
				len(incoming), undated, len(merged))
			return nil
		},
	}
}
