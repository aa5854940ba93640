package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and a registry summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{}
				if health, err := apiClient.Health(ctx); err == nil {
					summary["status"] = health.Status
					summary["version"] = health.Version
				}
				if ready, err := apiClient.Ready(ctx); err == nil {
					summary["rules"] = ready.Rules
				}
				if frameworks, err := apiClient.Rules().Frameworks(ctx); err == nil {
					summary["frameworks"] = len(frameworks)
				}
				if reports, err := apiClient.Compliance().ListReports(ctx, "", 0); err == nil {
					summary["recent_reports"] = len(reports)
				}
				return printOutput(summary)
			}

			fmt.Println("LexAudit Server")
			fmt.Println(strings.Repeat("=", 40))

			health, err := apiClient.Health(ctx)
			if err != nil {
				fmt.Printf("  Server:      (error: %v)\n", err)
				return nil
			}
			fmt.Printf("  Server:      %s (version %s)\n", health.Status, health.Version)

			ready, err := apiClient.Ready(ctx)
			if err != nil {
				fmt.Printf("  Ready:       no (%v)\n", err)
			} else {
				fmt.Printf("  Ready:       yes, %d rules registered\n", ready.Rules)
			}

			frameworks, err := apiClient.Rules().Frameworks(ctx)
			if err != nil {
				fmt.Printf("  Frameworks:  (error: %v)\n", err)
			} else {
				ids := make([]string, 0, len(frameworks))
				for _, f := range frameworks {
					ids = append(ids, fmt.Sprintf("%s(%d)", f.ID, f.Rules))
				}
				fmt.Printf("  Frameworks:  %s\n", strings.Join(ids, ", "))
			}

			reports, err := apiClient.Compliance().ListReports(ctx, "", 5)
			if err != nil {
				fmt.Printf("  Reports:     (error: %v)\n", err)
			} else if len(reports) == 0 {
				fmt.Println("  Reports:     none yet")
			} else {
				latest := reports[0]
				fmt.Printf("  Last report: %s for %s, %s compliant (%s)\n",
					latest.GeneratedAt.Format("2006-01-02 15:04"), latest.OrganizationID,
					formatPercent(latest.CurrentCompliance), latest.Model)
			}

			return nil
		},
	}
}
