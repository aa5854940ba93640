package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/lexaudit/pkg/client"
)

func newDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Manage stored documents",
	}

	cmd.AddCommand(newDocumentsAddCmd())
	cmd.AddCommand(newDocumentsListCmd())
	cmd.AddCommand(newDocumentsGetCmd())
	cmd.AddCommand(newDocumentsDeleteCmd())
	cmd.AddCommand(newDocumentsValidateCmd())
	cmd.AddCommand(newDocumentsResultsCmd())

	return cmd
}

func newDocumentsAddCmd() *cobra.Command {
	var input client.DocumentInput

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Store a document; the server validates it on save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			input.Content = string(content)
			if input.Title == "" {
				input.Title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			doc, err := apiClient.Documents().Create(context.Background(), input)
			if err != nil {
				return fmt.Errorf("failed to store document: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(doc)
			}
			fmt.Printf("Document %s stored (version %d)\n", doc.ID, doc.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.ID, "id", "", "document ID (generated when empty)")
	cmd.Flags().StringVar(&input.Title, "title", "", "document title (default: file name)")
	cmd.Flags().StringVar(&input.Type, "type", "other", "document type")
	cmd.Flags().StringVar(&input.OrganizationID, "org", "", "owning organization ID")
	cmd.Flags().StringVar(&input.Status, "status", "", "draft, review, approved, signed or archived")
	cmd.Flags().StringSliceVar(&input.Authors, "author", nil, "document authors")

	return cmd
}

func newDocumentsListCmd() *cobra.Command {
	var opts client.DocumentListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Documents().List(context.Background(), &opts)
			if err != nil {
				return fmt.Errorf("failed to list documents: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page)
			}

			table := NewTable("ID", "TYPE", "STATUS", "ORGANIZATION", "VERSION", "TITLE")
			for _, d := range page.Data {
				table.AddRow(d.ID, d.Type, d.Status, d.OrganizationID, fmt.Sprintf("%d", d.Version), truncate(d.Title, 50))
			}
			table.Render()
			fmt.Printf("\nPage %d of %d (%d documents)\n", page.Page, page.TotalPages, page.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.OrganizationID, "org", "", "filter by organization")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter by document type")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "page size")

	return cmd
}

func newDocumentsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := apiClient.Documents().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get document: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(doc)
			}

			fmt.Printf("ID:           %s\n", doc.ID)
			fmt.Printf("Title:        %s\n", doc.Title)
			fmt.Printf("Type:         %s\n", doc.Type)
			fmt.Printf("Status:       %s\n", doc.Status)
			fmt.Printf("Organization: %s\n", doc.OrganizationID)
			fmt.Printf("Version:      %d\n", doc.Version)
			fmt.Printf("Updated:      %s\n", doc.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newDocumentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Documents().Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete document: %w", err)
			}
			fmt.Printf("Document %s deleted\n", args[0])
			return nil
		},
	}
}

func newDocumentsValidateCmd() *cobra.Command {
	var (
		frameworks []string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "validate <document-id>",
		Short: "Validate a stored document and record the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts *client.ValidationOptions
			if len(frameworks) > 0 || cmd.Flags().Changed("strict") {
				opts = &client.ValidationOptions{Frameworks: frameworks, StrictMode: &strict}
			}

			result, err := apiClient.Compliance().ValidateStored(context.Background(), args[0], opts)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			return renderResult(result)
		},
	}

	cmd.Flags().StringSliceVar(&frameworks, "framework", nil, "limit validation to these frameworks")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat any issue as non-compliant")

	return cmd
}

func newDocumentsResultsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results <document-id>",
		Short: "Show recent validation results of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := apiClient.Compliance().Results(context.Background(), args[0], limit)
			if err != nil {
				return fmt.Errorf("failed to get results: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(results)
			}

			table := NewTable("VALIDATED", "SCORE", "ISSUES", "VERDICT")
			for _, r := range results {
				table.AddRow(r.ValidatedAt.Format("2006-01-02 15:04:05"), fmt.Sprintf("%.2f", r.Score),
					fmt.Sprintf("%d", len(r.Issues)), formatVerdict(r.IsCompliant))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")

	return cmd
}
