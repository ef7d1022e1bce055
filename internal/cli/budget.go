package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakespend/lakespend/pkg/client"
)

func newBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Budget policies and their assignment to resources",
	}

	cmd.AddCommand(newBudgetPoliciesCmd())
	cmd.AddCommand(newBudgetPolicyCmd())
	cmd.AddCommand(newBudgetCreateCmd())
	cmd.AddCommand(newBudgetDeleteCmd())
	cmd.AddCommand(newBudgetApplyCmd())
	cmd.AddCommand(newBudgetResourcesCmd())
	cmd.AddCommand(newBudgetCoverageCmd())

	return cmd
}

func newBudgetPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List budget policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			policies, err := apiClient.Budgets().ListPolicies(ctx)
			if err != nil {
				return fmt.Errorf("failed to list budget policies: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(policies)
			}

			table := NewTable("ID", "NAME", "MONTHLY BUDGET", "THRESHOLDS")
			for _, p := range policies {
				table.AddRow(
					p.PolicyID,
					truncate(p.Name, 30),
					fmt.Sprintf("%.2f", p.MaxMonthlyBudget),
					fmt.Sprintf("%v", p.AlertThresholds),
				)
			}
			table.Render()

			fmt.Printf("\n%d policies\n", len(policies))
			return nil
		},
	}
}

func newBudgetPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy <id>",
		Short: "Show one budget policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			policy, err := apiClient.Budgets().GetPolicy(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get budget policy: %w", err)
			}
			return printOutput(policy)
		},
	}
}

func newBudgetCreateCmd() *cobra.Command {
	var (
		name        string
		displayName string
		monthly     float64
		thresholds  []float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a budget policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			created, err := apiClient.Budgets().CreatePolicy(ctx, client.BudgetPolicy{
				Name:             name,
				DisplayName:      displayName,
				MaxMonthlyBudget: monthly,
				AlertThresholds:  thresholds,
			})
			if err != nil {
				return fmt.Errorf("failed to create budget policy: %w", err)
			}

			fmt.Printf("Created budget policy %s (%s)\n", created.PolicyID, created.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "policy name (required)")
	cmd.Flags().StringVar(&displayName, "display-name", "", "human-readable name")
	cmd.Flags().Float64Var(&monthly, "monthly-budget", 0, "max monthly budget per user (required)")
	cmd.Flags().Float64SliceVar(&thresholds, "thresholds", nil, "alert thresholds as fractions (default 0.5,0.75,0.9)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("monthly-budget")

	return cmd
}

func newBudgetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if err := apiClient.Budgets().DeletePolicy(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete budget policy: %w", err)
			}
			fmt.Printf("Deleted budget policy %s\n", args[0])
			return nil
		},
	}
}

func newBudgetApplyCmd() *cobra.Command {
	var (
		resourceType string
		resourceID   string
	)

	cmd := &cobra.Command{
		Use:   "apply <policy-id>",
		Short: "Assign a budget policy to one resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			result, err := apiClient.Budgets().Apply(ctx, args[0], client.ResourceRef{
				Type: resourceType,
				ID:   resourceID,
			})
			if err != nil {
				return fmt.Errorf("failed to apply budget policy: %w", err)
			}

			fmt.Printf("Applied %s\n", args[0])
			return printTags(result)
		},
	}

	cmd.Flags().StringVar(&resourceType, "type", "", "resource type (required)")
	cmd.Flags().StringVar(&resourceID, "id", "", "resource ID (required)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newBudgetResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources <policy-id>",
		Short: "List resources assigned to a budget policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			resources, err := apiClient.Budgets().PolicyResources(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list policy resources: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(resources)
			}

			table := NewTable("TYPE", "ID", "NAME", "TAGS")
			for _, r := range resources {
				table.AddRow(r.Type, r.ID, truncate(r.Name, 30), truncate(formatTags(r.Tags), 50))
			}
			table.Render()

			fmt.Printf("\n%d resources\n", len(resources))
			return nil
		},
	}
}

func newBudgetCoverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Report budget policy coverage across the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			report, err := apiClient.Budgets().Coverage(ctx)
			if err != nil {
				return fmt.Errorf("coverage report failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(report)
			}

			table := NewTable("POLICY", "NAME", "KNOWN", "RESOURCES")
			for _, u := range report.Policies {
				known := "yes"
				if !u.Known {
					known = "no"
				}
				table.AddRow(u.PolicyID, truncate(u.PolicyName, 30), known, fmt.Sprintf("%d", len(u.Resources)))
			}
			table.Render()

			fmt.Printf("\n%d/%d resources covered (%.1f%%)\n",
				report.CoveredResources,
				report.TotalResources,
				report.CoverageRate*100)
			return nil
		},
	}
}
