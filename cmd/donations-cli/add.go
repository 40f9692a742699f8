package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"donations/internal/core"
)

func addCmd() *cobra.Command {
	var name, amount, purpose, location string

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a donation",
		Example: `  donations-cli add --name "Asha Rao" --amount 500 --purpose Education --location Delhi`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := core.DonationInput{Name: name, Location: location}
			if amt, err := core.ParseAmount(amount); err == nil {
				in.Amount = amt
			}
			if p, err := core.ParsePurpose(purpose); err == nil {
				in.Purpose = p
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.donations.Append(cmd.Context(), in)
			var ve *core.ValidationError
			if errors.As(err, &ve) {
				return fmt.Errorf("%s (%v)", ve.UserMessage(), ve.Fields)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Recorded %s from %s for %s in %s\n",
				d.Amount.Display(), d.Name, d.Purpose, d.Location)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "donor name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in rupees, e.g. 250 or 99.50")
	cmd.Flags().StringVar(&purpose, "purpose", "", "one of "+purposeList())
	cmd.Flags().StringVar(&location, "location", "", "donor location")
	return cmd
}
