package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/lexaudit/pkg/client"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <organization-id>",
		Short: "Generate a compliance report for an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := apiClient.Compliance().GenerateReport(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
			return renderReport(report)
		},
	}
}

func newPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <organization-id>",
		Short: "Generate a predictive compliance forecast for an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := apiClient.Compliance().Predict(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to generate forecast: %w", err)
			}
			return renderReport(report)
		},
	}
}

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse stored reports",
	}

	cmd.AddCommand(newReportsListCmd())
	cmd.AddCommand(newReportsGetCmd())

	return cmd
}

func newReportsListCmd() *cobra.Command {
	var (
		orgID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := apiClient.Compliance().ListReports(context.Background(), orgID, limit)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(reports)
			}

			table := NewTable("ID", "ORGANIZATION", "MODEL", "CURRENT", "PREDICTED", "RISKS", "GENERATED")
			for _, r := range reports {
				table.AddRow(r.ID, r.OrganizationID, r.Model,
					formatPercent(r.CurrentCompliance), formatPercent(r.PredictedCompliance),
					fmt.Sprintf("%d", r.HighRiskAreas), r.GeneratedAt.Format("2006-01-02 15:04"))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of reports")

	return cmd
}

func newReportsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <report-id>",
		Short: "Show a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := apiClient.Compliance().GetReport(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get report: %w", err)
			}
			return renderReport(report)
		},
	}
}

func renderReport(report *client.Report) error {
	if getOutputFormat() != "table" {
		return printOutput(report)
	}

	fmt.Printf("Report %s (%s) for %s\n", report.ID, report.Model, report.OrganizationID)
	fmt.Printf("Current compliance:   %s\n", formatPercent(report.CurrentCompliance))
	fmt.Printf("Predicted compliance: %s\n", formatPercent(report.PredictedCompliance))
	fmt.Printf("Estimated cost:       %.0f %s (ROI %.1fx)\n\n",
		report.CostEstimate.Total, report.CostEstimate.Currency, report.CostEstimate.ROI)

	if len(report.Documents) > 0 {
		table := NewTable("DOCUMENT", "TITLE", "SCORE", "ISSUES", "VERDICT")
		for _, d := range report.Documents {
			table.AddRow(d.DocumentID, truncate(d.Title, 40), fmt.Sprintf("%.2f", d.Score),
				fmt.Sprintf("%d", d.IssueCount), formatVerdict(d.IsCompliant))
		}
		table.Render()
		fmt.Println()
	}

	if len(report.HighRiskAreas) > 0 {
		table := NewTable("RISK AREA", "FRAMEWORK", "SCORE", "COMPLEXITY", "DEADLINE")
		for _, a := range report.HighRiskAreas {
			table.AddRow(truncate(a.Area, 40), a.Framework, fmt.Sprintf("%.2f", a.RiskScore),
				a.Complexity, a.Deadline.Format("2006-01-02"))
		}
		table.Render()
		fmt.Println()
	}

	if len(report.UpcomingChanges) > 0 {
		table := NewTable("EFFECTIVE", "FRAMEWORK", "JURISDICTION", "CHANGE")
		for _, c := range report.UpcomingChanges {
			table.AddRow(c.EffectiveDate.Format("2006-01-02"), c.Framework, c.Jurisdiction, truncate(c.Title, 60))
		}
		table.Render()
		fmt.Println()
	}

	if len(report.Timeline.Events) > 0 {
		table := NewTable("DATE", "TYPE", "IMPORTANCE", "EVENT")
		for _, e := range report.Timeline.Events {
			table.AddRow(e.Date.Format("2006-01-02"), e.Type, e.Importance, truncate(e.Description, 70))
		}
		table.Render()
	}
	return nil
}
