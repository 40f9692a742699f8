package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"donations/internal/core"
)

func reportCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise donations by purpose, location and day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.reports.Report(cmd.Context(), f)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), r)
		},
	}
	flags.register(cmd)
	return cmd
}

func writeReport(out io.Writer, r core.Report) error {
	if r.TotalRecords == 0 {
		_, err := fmt.Fprintln(out, "No donations recorded yet.")
		return err
	}
	if r.Empty() {
		_, err := fmt.Fprintln(out, "No data to display in charts. Try adjusting the filters.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Donations\t%d of %d\n", r.Summary.Count, r.TotalRecords)
	fmt.Fprintf(w, "Total\t%s\n\n", r.Summary.Total.Display())

	fmt.Fprintln(w, "PURPOSE\tAMOUNT")
	for _, p := range r.ByPurpose {
		fmt.Fprintf(w, "%s\t%s\n", p.Purpose, p.Amount.Display())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "LOCATION\tPURPOSE\tAMOUNT")
	for _, c := range r.ByLocationAndPurpose {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Location, c.Purpose, c.Amount.Display())
	}
	fmt.Fprintln(w)

	if r.TrendWarning != "" {
		fmt.Fprintf(w, "Daily trend\t%s\n", r.TrendWarning)
	} else {
		fmt.Fprintln(w, "DAY\tAMOUNT")
		for _, d := range r.Trend {
			fmt.Fprintf(w, "%s\t%s\n", d.Day.Format("2006-01-02"), d.Amount.Display())
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Mapped donations\t%d of %d\n", len(r.Geo), r.Summary.Count)
	return w.Flush()
}
