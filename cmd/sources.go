package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connector-service/core/source"
	"connector-service/feature/sources"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fetchContent bool
	rulesFlag    string
)

// sourcesCmd is the parent command for document source operations.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect connectors and their document sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered connectors and supported service types",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSources(func(ctx context.Context, svc *sources.Service, _ *zap.Logger) error {
			listing, err := svc.List(ctx)
			if err != nil {
				return err
			}
			return printJSON(listing)
		})
	},
}

var sourcesDocsCmd = &cobra.Command{
	Use:   "docs <connector-id>",
	Short: "Stream the documents of a connector as JSON lines",
	Long: `Crawls the connector's backend and prints one document per line.

Examples:
  sources docs c-1
  sources docs c-1 --fetch
  sources docs c-1 --rules '[{"pattern":"docs/*"}]'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSources(func(ctx context.Context, svc *sources.Service, l *zap.Logger) error {
			return streamDocs(ctx, svc, l, args[0])
		})
	},
}

var sourcesAccessControlCmd = &cobra.Command{
	Use:   "access-control <connector-id>",
	Short: "Print the identity documents of a connector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSources(func(ctx context.Context, svc *sources.Service, l *zap.Logger) error {
			src, err := svc.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer src.Close(ctx)

			acs, ok := src.(source.AccessControlSource)
			if !ok {
				return errors.New("source does not support access control")
			}
			count := 0
			for doc, err := range acs.GetAccessControl(ctx) {
				if err != nil {
					return err
				}
				if err := printJSONLine(doc); err != nil {
					return err
				}
				count++
			}
			l.Info("Access control fetched", zap.Int("identities", count))
			return nil
		})
	},
}

func init() {
	sourcesDocsCmd.Flags().BoolVar(&fetchContent, "fetch", false, "Download and attach file content")
	sourcesDocsCmd.Flags().StringVar(&rulesFlag, "rules", "", "Advanced rules as a JSON array")

	sourcesCmd.AddCommand(sourcesListCmd, sourcesDocsCmd, sourcesAccessControlCmd)
	RootCmd.AddCommand(sourcesCmd)
}

func withSources(run func(ctx context.Context, svc *sources.Service, l *zap.Logger) error) error {
	ctx := context.Background()

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	svc := sources.NewService(rt.connectors, rt.registry, rt.cfg.Features, rt.logg)
	return run(ctx, svc, rt.logg)
}

func streamDocs(ctx context.Context, svc *sources.Service, l *zap.Logger, connectorID string) error {
	filtering := source.Filtering{Advanced: json.RawMessage(rulesFlag)}
	if rulesFlag != "" {
		results, err := svc.ValidateFiltering(ctx, connectorID, filtering.Advanced)
		if err != nil {
			return err
		}
		for _, res := range results {
			if !res.IsValid {
				return fmt.Errorf("invalid advanced rules: %s", res.Message)
			}
		}
	}

	src, err := svc.Open(ctx, connectorID)
	if err != nil {
		return err
	}
	defer src.Close(ctx)

	started := time.Now()
	count := 0
	for item, err := range src.GetDocs(ctx, filtering) {
		if err != nil {
			return err
		}
		doc := item.Document
		if fetchContent && item.Fetch != nil {
			content, err := item.Fetch(ctx, true, "")
			if err != nil {
				return err
			}
			if content != nil {
				doc[source.FieldAttachment] = content[source.FieldAttachment]
			}
		}
		if err := printJSONLine(doc); err != nil {
			return err
		}
		count++
	}

	l.Info("Documents streamed",
		zap.Int("count", count),
		zap.Duration("execution_time", time.Since(started)),
	)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printJSONLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
