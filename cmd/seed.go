package cmd

import (
	"fmt"

	"civicsetu-be/config"
	"civicsetu-be/logger"
	"civicsetu-be/seed"
	"civicsetu-be/stores"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the department routing plan",
		Long: `Upserts every department in the plan and replaces its category list.
Without --file the built-in plan is used. Running the command again is harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.WithComponent("seed")

			plan, err := seed.LoadPlan(file)
			if err != nil {
				return err
			}
			if dryRun {
				for _, d := range plan.Departments {
					fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-28s %d categories\n", d.Code, d.Name, len(d.Categories))
				}
				return nil
			}

			if cfg.MongoURI == "" {
				return fmt.Errorf("please define the MONGODB_URI environment variable")
			}
			db, err := config.ConnectDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := config.DisconnectDB(db); err != nil {
					log.Error("error disconnecting from MongoDB", "error", err)
				}
			}()

			departments := stores.NewMongoDepartmentStore(db)
			if err := departments.EnsureIndexes(cmd.Context()); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}
			res, err := seed.Apply(cmd.Context(), departments, plan)
			if err != nil {
				return err
			}
			log.Info("seed complete", "departments", res.Departments, "categories", res.Categories)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML plan to apply instead of the built-in one")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print the plan without writing")
	return cmd
}
