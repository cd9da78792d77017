package cmd

import (
	"context"

	"connector-service/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the content index bucket and the registry schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(true, true)
	},
}

var storageCheckCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check and optionally create the content index bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(true, false)
	},
}

var databaseCheckCmd = &cobra.Command{
	Use:   "database",
	Short: "Check the connector and sync job tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(storageCheckCmd, databaseCheckCmd)

	storageCheckCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the bucket when missing")
}

func runIntegrityChecks(checkStorage, checkDatabase bool) error {
	ctx := context.Background()

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close(ctx)
	logg := rt.logg

	svc := integrity.NewService(rt.client, rt.cfg.Storage, rt.db, logg)

	if checkStorage {
		report, err := svc.CheckStorage(ctx)
		if err != nil {
			logg.Error("Storage check failed", zap.Error(err))
		} else if !report.Exists {
			logg.Warn("Content index bucket is missing", zap.String("bucket", report.Bucket))
			if fixFlag {
				if err := svc.FixStorage(ctx); err != nil {
					return err
				}
			}
		} else {
			logg.Info("Storage check passed",
				zap.String("bucket", report.Bucket),
				zap.Int("indices", report.Indices),
			)
		}
	}

	if checkDatabase {
		report, err := svc.CheckDatabase()
		if err != nil {
			logg.Error("Database schema check failed", zap.Error(err))
			return err
		}
		if !report.Matched {
			logg.Warn("Database schema mismatch", zap.Strings("errors", report.Errors))
			return printJSON(report)
		}
		logg.Info("Database schema check passed", zap.String("driver", report.Driver))
	}
	return nil
}
