// Command donations-cli records and reports donations from the terminal,
// against the same backend the web server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"donations/internal/backend"
	"donations/internal/cli"
	"donations/internal/core"
	"donations/internal/log"
	"donations/internal/services"
	"donations/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "donations-cli",
		Short:         "💝 NGO donation tracker from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			cli.LoadEnvFile()
			cli.SetupLogger(log.ComponentCLI)
		},
	}
	root.AddCommand(addCmd(), listCmd(), reportCmd(), exportCmd(), importCmd())
	return root
}

// app is the wiring a command needs. Close releases the backend.
type app struct {
	store     storage.RecordStore
	donations *services.DonationService
	reports   *services.ReportService
	close     backend.CleanupFunc
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(nil).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	reports := services.NewReportService(result.Store, cfg.ReportCacheTTL)
	opts := []services.Option{services.WithReportCache(reports)}
	if result.Publisher != nil {
		opts = append(opts, services.WithPublisher(result.Publisher))
	}
	return &app{
		store:     result.Store,
		donations: services.NewDonationService(result.Store, opts...),
		reports:   reports,
		close:     result.Cleanup,
	}, nil
}

func (a *app) Close() {
	if a.close == nil {
		return
	}
	if err := a.close(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to close storage:", err)
	}
}

// filterFlags are shared by the read commands.
type filterFlags struct {
	locations []string
	purposes  []string
	name      string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.locations, "location", nil, "only these locations (repeatable)")
	cmd.Flags().StringSliceVar(&f.purposes, "purpose", nil, "only these purposes (repeatable)")
	cmd.Flags().StringVar(&f.name, "name", "", "donor name contains (case-insensitive)")
}

func (f *filterFlags) filter() (core.Filter, error) {
	out := core.Filter{Name: strings.TrimSpace(f.name)}
	for _, loc := range f.locations {
		if loc = strings.TrimSpace(loc); loc != "" {
			out.Locations = append(out.Locations, loc)
		}
	}
	for _, raw := range f.purposes {
		p, err := core.ParsePurpose(raw)
		if err != nil {
			return core.Filter{}, fmt.Errorf("unknown purpose %q (want one of %s)", raw, purposeList())
		}
		out.Purposes = append(out.Purposes, p)
	}
	return out, nil
}

func purposeList() string {
	names := make([]string, len(core.Purposes))
	for i, p := range core.Purposes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
