package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stagegate/adapters/excel"
	"stagegate/app"
	"stagegate/domain/core"
	"stagegate/domain/transition"
	"stagegate/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stagegate-cli",
		Short: "Stagegate CLI for evaluating transitions against seeded demo data",
	}

	rootCmd.AddCommand(
		newCatalogCmd(),
		newEvaluateCmd(),
		newSweepCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// seededService builds a transition service over the in-memory kit.
func seededService(perDomain int, seed int64) (*testkit.TestKit, *app.TransitionService, error) {
	kit := testkit.NewTestKit()
	if err := kit.SeedDemoEntities(perDomain, seed); err != nil {
		return nil, nil, err
	}
	service := app.NewTransitionService(kit.Catalogs(), kit.Store(), kit.Store())
	return kit, service, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [domain]",
		Short: "Print the stage catalog for a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit := testkit.NewTestKit()
			catalog, err := kit.Catalogs().Catalog(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(catalog.Definitions())
		},
	}
}

func newEvaluateCmd() *cobra.Command {
	var (
		domain     string
		entityID   string
		newStage   string
		newTarget  string
		targetDate string
		note       string
		seed       int64
		commit     bool
		ack        bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Preview or commit a transition against a seeded entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, service, err := seededService(10, seed)
			if err != nil {
				return err
			}

			input := transition.TransitionInput{Note: note}
			if newStage != "" {
				input.NewStageID = core.StageIDPtr(newStage)
			}
			if newTarget != "" {
				input.NewTargetStageID = core.StageIDPtr(newTarget)
			}
			if targetDate != "" {
				parsed, err := time.Parse("2006-01-02", targetDate)
				if err != nil {
					return fmt.Errorf("parse --target-date: %w", err)
				}
				input.NewTargetDate = core.TimestampPtr(parsed)
			}

			req := app.TransitionRequest{
				EntityID:     core.EntityID(entityID),
				Domain:       domain,
				Input:        input,
				ChangedBy:    "cli",
				Acknowledged: ack,
			}

			ctx := context.Background()
			if commit {
				outcome, err := service.Commit(ctx, req)
				if outcome != nil {
					_ = printJSON(outcome)
				}
				return err
			}
			outcome, err := service.Preview(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(outcome)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "pipeline", "entity domain")
	cmd.Flags().StringVar(&entityID, "entity", "pipeline-demo-001", "entity id")
	cmd.Flags().StringVar(&newStage, "stage", "", "proposed stage id")
	cmd.Flags().StringVar(&newTarget, "target", "", "proposed target stage id")
	cmd.Flags().StringVar(&targetDate, "target-date", "", "proposed target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&note, "note", "", "note attached to the transition")
	cmd.Flags().Int64Var(&seed, "seed", 42, "demo data seed")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit instead of preview")
	cmd.Flags().BoolVar(&ack, "ack", false, "acknowledge warnings")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var seed int64
	var capacity int64

	cmd := &cobra.Command{
		Use:   "sweep [domain]",
		Short: "Revalidate the standing state of every seeded entity in a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, service, err := seededService(10, seed)
			if err != nil {
				return err
			}
			sweeps := app.NewRevalidationSweepService(service, kit.Store(), kit.Store(), capacity)
			report, err := sweeps.Run(context.Background(), args[0], 0)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "demo data seed")
	cmd.Flags().Int64Var(&capacity, "capacity", 4, "concurrent evaluations")
	return cmd
}

func newExportCmd() *cobra.Command {
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "export [entity-id]",
		Short: "Export an entity's history and statistics to xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, service, err := seededService(10, seed)
			if err != nil {
				return err
			}

			ctx := context.Background()
			entityID := core.EntityID(args[0])
			state, err := service.EntityState(ctx, entityID)
			if err != nil {
				return err
			}
			if state.IsNew {
				return fmt.Errorf("entity %s not found in seeded data", entityID)
			}
			catalog, err := service.StageCatalog(ctx, state.Domain)
			if err != nil {
				return err
			}
			records, err := service.HistoryWindow(ctx, entityID)
			if err != nil {
				return err
			}
			stats, err := service.Statistics(ctx, entityID)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = excel.ReportFilename(entityID)
			}
			if err := excel.NewReportWriter(catalog).WriteHistoryReport(path, entityID, records, stats); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d history rows)\n", path, len(records))
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "demo data seed")
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to transitions_<id>.xlsx)")
	return cmd
}
