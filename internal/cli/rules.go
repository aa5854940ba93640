package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
	"github.com/pratik-mahalle/lexaudit/internal/rules"
	"github.com/pratik-mahalle/lexaudit/pkg/client"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the server's rule registry",
	}

	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesFrameworksCmd())
	cmd.AddCommand(newRulesAddCmd())
	cmd.AddCommand(newRulesRemoveCmd())

	return cmd
}

func newRulesListCmd() *cobra.Command {
	var framework string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := apiClient.Rules().List(context.Background(), strings.ToUpper(framework))
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}

			table := NewTable("ID", "FRAMEWORK", "SEVERITY", "NAME")
			for _, r := range list {
				table.AddRow(r.ID, r.Framework, formatSeverity(r.Severity), truncate(r.Name, 60))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&framework, "framework", "", "only rules of this framework")

	return cmd
}

func newRulesFrameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List frameworks with registered rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			frameworks, err := apiClient.Rules().Frameworks(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list frameworks: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(frameworks)
			}

			table := NewTable("ID", "RULES", "JURISDICTIONS", "NAME")
			for _, f := range frameworks {
				table.AddRow(f.ID, fmt.Sprintf("%d", f.Rules), strings.Join(f.Jurisdictions, ","), f.Name)
			}
			table.Render()
			return nil
		},
	}
}

func newRulesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <rule-pack>",
		Short: "Register the rules of an .hcl or .yaml rule pack",
		Long: `Compile a rule pack locally, then register each rule on the server.
Rules that are already registered are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := rules.NewLoader(validator.New(), logger.New(logger.Config{Level: "warn", Format: "console", Output: os.Stderr}))
			compiled, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			var added, skipped int
			for _, rule := range compiled {
				_, err := apiClient.Rules().Create(ctx, client.RuleDefinition(rule.Definition()))
				if apiErr, ok := err.(*client.APIError); ok && apiErr.IsConflict() {
					fmt.Printf("  skipped %s (already registered)\n", rule.ID())
					skipped++
					continue
				}
				if err != nil {
					return fmt.Errorf("failed to register %s: %w", rule.ID(), err)
				}
				fmt.Printf("  added   %s\n", rule.ID())
				added++
			}

			fmt.Printf("%d rules added, %d skipped\n", added, skipped)
			return nil
		},
	}
}

func newRulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule-id>",
		Short: "Unregister a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Rules().Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to remove rule: %w", err)
			}
			fmt.Printf("Rule %s removed\n", args[0])
			return nil
		},
	}
}
