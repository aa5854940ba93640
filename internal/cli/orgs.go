package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/lexaudit/pkg/client"
)

func newOrgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "Manage organizations",
	}

	cmd.AddCommand(newOrgsCreateCmd())
	cmd.AddCommand(newOrgsUpdateCmd())
	cmd.AddCommand(newOrgsListCmd())
	cmd.AddCommand(newOrgsGetCmd())

	return cmd
}

func orgFlags(cmd *cobra.Command, input *client.OrganizationInput) {
	cmd.Flags().StringVar(&input.Name, "name", "", "organization name")
	cmd.Flags().StringVar(&input.Industry, "industry", "", "industry, e.g. healthcare or finance")
	cmd.Flags().IntVar(&input.Size, "size", 0, "number of employees")
	cmd.Flags().StringSliceVar(&input.Jurisdictions, "jurisdiction", nil, "jurisdictions, e.g. EU,US-CA")
	cmd.Flags().StringSliceVar(&input.RegulatoryFrameworks, "framework", nil, "applicable frameworks, e.g. GDPR,HIPAA")
	cmd.Flags().StringVar(&input.ContactEmail, "email", "", "compliance contact email")
}

func newOrgsCreateCmd() *cobra.Command {
	var input client.OrganizationInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Name == "" {
				input.Name = promptInput("Name: ")
			}
			org, err := apiClient.Organizations().Create(context.Background(), input)
			if err != nil {
				return fmt.Errorf("failed to create organization: %w", err)
			}
			return renderOrg(org)
		},
	}

	cmd.Flags().StringVar(&input.ID, "id", "", "organization ID (generated when empty)")
	orgFlags(cmd, &input)

	return cmd
}

func newOrgsUpdateCmd() *cobra.Command {
	var input client.OrganizationInput

	cmd := &cobra.Command{
		Use:   "update <organization-id>",
		Short: "Replace an organization's profile; the server regenerates its report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			current, err := apiClient.Organizations().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get organization: %w", err)
			}

			if !cmd.Flags().Changed("name") {
				input.Name = current.Name
			}
			if !cmd.Flags().Changed("industry") {
				input.Industry = current.Industry
			}
			if !cmd.Flags().Changed("size") {
				input.Size = current.Size
			}
			if !cmd.Flags().Changed("jurisdiction") {
				input.Jurisdictions = current.Jurisdictions
			}
			if !cmd.Flags().Changed("framework") {
				input.RegulatoryFrameworks = current.RegulatoryFrameworks
			}
			if !cmd.Flags().Changed("email") {
				input.ContactEmail = current.ContactEmail
			}

			org, err := apiClient.Organizations().Update(ctx, args[0], input)
			if err != nil {
				return fmt.Errorf("failed to update organization: %w", err)
			}
			return renderOrg(org)
		},
	}

	orgFlags(cmd, &input)

	return cmd
}

func newOrgsListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			orgs, err := apiClient.Organizations().List(context.Background(), &opts)
			if err != nil {
				return fmt.Errorf("failed to list organizations: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(orgs)
			}

			table := NewTable("ID", "NAME", "INDUSTRY", "SIZE", "JURISDICTIONS")
			for _, o := range orgs {
				table.AddRow(o.ID, truncate(o.Name, 40), o.Industry, fmt.Sprintf("%d", o.Size), strings.Join(o.Jurisdictions, ","))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "page size")

	return cmd
}

func newOrgsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <organization-id>",
		Short: "Show an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := apiClient.Organizations().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get organization: %w", err)
			}
			return renderOrg(org)
		},
	}
}

func renderOrg(org *client.Organization) error {
	if getOutputFormat() != "table" {
		return printOutput(org)
	}

	fmt.Printf("ID:            %s\n", org.ID)
	fmt.Printf("Name:          %s\n", org.Name)
	fmt.Printf("Industry:      %s\n", org.Industry)
	fmt.Printf("Size:          %d\n", org.Size)
	fmt.Printf("Jurisdictions: %s\n", strings.Join(org.Jurisdictions, ", "))
	fmt.Printf("Frameworks:    %s\n", strings.Join(org.RegulatoryFrameworks, ", "))
	if org.ContactEmail != "" {
		fmt.Printf("Contact:       %s\n", org.ContactEmail)
	}
	return nil
}
