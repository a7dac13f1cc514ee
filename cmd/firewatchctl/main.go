package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/firewatch/internal/bootstrap"
	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/pkg/config"
	"github.com/samirrijal/firewatch/internal/pkg/logging"
)

var (
	jsonOut bool
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "firewatchctl",
		Short: "Operate firewatch snapshots, routes and deployments",
		Long: `firewatchctl runs the firewatch use cases directly against the
configured snapshot store. With the memory store every command pulls
fresh snapshots first.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall command timeout")

	rootCmd.AddCommand(refreshCmd(), planCmd(), deployCmd(), alertsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wiring for one command run.
type app struct {
	cfg *config.Config
	svc *bootstrap.Services
	out io.Writer
	// ephemeral is true when snapshots live only in this process.
	ephemeral bool
	close     func()
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load("firewatchctl")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logging.Setup("firewatchctl", cfg.Log.Level, cfg.Log.Format)

	repo, db, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cache, _, closeCache := bootstrap.Cache(ctx, cfg)

	a := &app{
		cfg:       cfg,
		svc:       bootstrap.NewServices(cfg, repo, cache, nil),
		out:       cmd.OutOrStdout(),
		ephemeral: db == nil,
	}
	a.close = func() {
		closeCache()
		if db != nil {
			db.Close()
		}
	}
	return a, nil
}

// warm fills an ephemeral store with the given kinds.
func (a *app) warm(ctx context.Context, kinds ...domain.EntityKind) error {
	if !a.ephemeral {
		return nil
	}
	for _, o := range a.svc.Snapshots.Refresh(ctx, kinds...) {
		if o.Error != "" {
			return fmt.Errorf("refresh %s: %s", o.Kind, o.Error)
		}
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run wraps a command body with wiring and the timeout.
func run(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a, args)
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [kind...]",
		Short: "Refresh entity snapshots (all kinds when none given)",
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			kinds, err := domain.ParseKinds(args)
			if err != nil {
				return err
			}
			outcomes := a.svc.Snapshots.Refresh(ctx, kinds...)
			if jsonOut {
				return a.printJSON(outcomes)
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tCOUNT\tDROPPED\tERROR")
			failed := 0
			for _, o := range outcomes {
				if o.Snapshot != nil {
					fmt.Fprintf(w, "%s\t%d\t%d\t\n", o.Kind, o.Snapshot.Count, o.Snapshot.Dropped)
					continue
				}
				failed++
				fmt.Fprintf(w, "%s\t-\t-\t%s\n", o.Kind, o.Error)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed == len(outcomes) {
				return fmt.Errorf("every refresh failed")
			}
			return nil
		}),
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <address>",
		Short: "Plan an evacuation route from an address to the nearest shelter",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			if err := a.warm(ctx, domain.KindShelters, domain.KindHazards); err != nil {
				return err
			}
			plan, err := a.svc.Planner.PlanRoute(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return a.printJSON(plan)
			}
			fmt.Fprintf(a.out, "From:     %s (%.5f, %.5f)\n", plan.Address, plan.Origin.Lat, plan.Origin.Lon)
			fmt.Fprintf(a.out, "Shelter:  %s (%.5f, %.5f)\n", plan.Shelter.Name, plan.Shelter.Location.Lat, plan.Shelter.Location.Lon)
			if d := plan.Route.DistanceMeters; d != nil {
				fmt.Fprintf(a.out, "Distance: %.1f km\n", *d/1000)
			} else {
				fmt.Fprintln(a.out, "Distance: unknown")
			}
			fmt.Fprintf(a.out, "Path:     %d points\n", len(plan.Route.Path))
			fmt.Fprintf(a.out, "Avoiding: %d hazard regions\n", len(plan.AvoidRegions))
			return nil
		}),
	}
}

func deployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Assign stations to active hazards",
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			if err := a.warm(ctx, domain.KindStations, domain.KindHazards); err != nil {
				return err
			}
			dr, err := a.svc.Deployments.Optimal(ctx)
			if err != nil {
				return err
			}
			if jsonOut {
				return a.printJSON(dr)
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STATION\tHAZARD\tINTENSITY\tSCORE")
			for _, as := range dr.Assignments {
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%.4f\n", as.Station.Name, as.Hazard.ID, as.Hazard.Intensity, as.Score)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n%d active, %d assigned, %d unassigned, %d idle stations\n",
				dr.ActiveHazards, dr.AssignedHazards, dr.UnassignedHazards, dr.IdleStations)
			return nil
		}),
	}
}

func alertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List active weather alerts",
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			if err := a.warm(ctx, domain.KindAlerts); err != nil {
				return err
			}
			alerts, err := a.svc.Entities.Alerts(ctx)
			if err != nil {
				return err
			}
			if jsonOut {
				return a.printJSON(alerts)
			}
			if len(alerts) == 0 {
				fmt.Fprintln(a.out, "No active alerts.")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tSEVERITY\tEXPIRES\tAREA")
			for _, al := range alerts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", al.Event, al.Severity, al.Expires.Format(time.RFC3339), al.Area)
			}
			return w.Flush()
		}),
	}
}
