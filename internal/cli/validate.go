package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/services"
	"github.com/pratik-mahalle/lexaudit/pkg/client"
)

type validateFlags struct {
	title         string
	docType       string
	frameworks    []string
	jurisdictions []string
	strict        bool
	local         bool
	rulesDir      string
	noBuiltins    bool
	failOnIssues  bool
}

func newValidateCmd() *cobra.Command {
	var f validateFlags

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a document file",
		Long: `Validate a document against the registered rules. By default the file is
sent to the server; --local evaluates it in-process with the built-in rules and
any rule packs in --rules.`,
		Args: cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if f.local {
				return nil
			}
			return initAuthenticatedClient()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			if f.title == "" {
				f.title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			var result *client.ValidationResult
			if f.local {
				result, err = validateLocal(context.Background(), string(content), f)
			} else {
				result, err = validateRemote(context.Background(), string(content), f)
			}
			if err != nil {
				return err
			}

			if err := renderResult(result); err != nil {
				return err
			}
			if f.failOnIssues && !result.IsCompliant {
				return fmt.Errorf("document is not compliant")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.title, "title", "", "document title (default: file name)")
	cmd.Flags().StringVar(&f.docType, "type", document.TypeOther, "document type, e.g. privacy_policy, contract, nda")
	cmd.Flags().StringSliceVar(&f.frameworks, "framework", nil, "limit validation to these frameworks")
	cmd.Flags().StringSliceVar(&f.jurisdictions, "jurisdiction", nil, "jurisdictions the document applies to")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "treat any issue as non-compliant")
	cmd.Flags().BoolVar(&f.local, "local", false, "validate in-process instead of on the server")
	cmd.Flags().StringVar(&f.rulesDir, "rules", "", "directory of .hcl/.yaml rule packs (with --local)")
	cmd.Flags().BoolVar(&f.noBuiltins, "no-builtins", false, "skip the built-in rules (with --local)")
	cmd.Flags().BoolVar(&f.failOnIssues, "fail", false, "exit non-zero when the document is not compliant")

	return cmd
}

func validateRemote(ctx context.Context, content string, f validateFlags) (*client.ValidationResult, error) {
	strict := f.strict
	result, err := apiClient.Compliance().Validate(ctx, client.DocumentInput{
		Title:   f.title,
		Type:    f.docType,
		Content: content,
	}, &client.ValidationOptions{
		Frameworks:    f.frameworks,
		Jurisdictions: f.jurisdictions,
		StrictMode:    &strict,
	})
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return result, nil
}

// validateLocal runs the engine in-process and converts the result to the
// client representation so both paths render the same way
func validateLocal(ctx context.Context, content string, f validateFlags) (*client.ValidationResult, error) {
	log := logger.New(logger.Config{Level: "warn", Format: "console", Output: os.Stderr})
	bus := events.NewBus(16, log)
	defer bus.Close()

	engine := services.NewComplianceService(services.NewRuleRegistry(log), bus, log, services.ComplianceConfig{
		LoadBuiltins:  !f.noBuiltins,
		RulesDir:      f.rulesDir,
		ReportWorkers: 1,
	})
	if err := engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer engine.Close()

	res, err := engine.ValidateDocument(ctx, &document.Document{
		Title:   f.title,
		Type:    f.docType,
		Content: content,
	}, compliance.ValidationOptions{
		Frameworks:             compliance.CanonicalFrameworks(f.frameworks),
		Jurisdictions:          f.jurisdictions,
		StrictMode:             f.strict,
		IncludeRecommendations: true,
		IncludeRiskAssessment:  true,
	})
	if err != nil {
		return nil, err
	}
	return toClientResult(res)
}

func toClientResult(res *compliance.ValidationResult) (*client.ValidationResult, error) {
	var out client.ValidationResult
	if err := convert(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func renderResult(result *client.ValidationResult) error {
	if getOutputFormat() != "table" {
		return printOutput(result)
	}

	fmt.Printf("Verdict: %s   Score: %.2f   Issues: %d\n\n", formatVerdict(result.IsCompliant), result.Score, len(result.Issues))

	if len(result.Issues) > 0 {
		table := NewTable("SEVERITY", "FRAMEWORK", "LINE", "MESSAGE")
		for _, issue := range result.Issues {
			framework, line := "-", "-"
			if issue.RegulatoryReference != nil {
				framework = issue.RegulatoryReference.Framework
				if issue.RegulatoryReference.Section != "" {
					framework += " " + issue.RegulatoryReference.Section
				}
			}
			if issue.Location != nil {
				line = fmt.Sprintf("%d", issue.Location.Start.Line+1)
			}
			table.AddRow(formatSeverity(issue.Severity), framework, line, truncate(issue.Message, 80))
		}
		table.Render()
		fmt.Println()
	}

	if len(result.Recommendations) > 0 {
		table := NewTable("PRIORITY", "EFFORT", "DEADLINE", "RECOMMENDATION")
		for _, rec := range result.Recommendations {
			table.AddRow(rec.Priority, rec.Effort, rec.Deadline.Format("2006-01-02"), truncate(rec.Title, 70))
		}
		table.Render()
	}
	return nil
}
