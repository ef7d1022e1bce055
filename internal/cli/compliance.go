package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newComplianceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compliance",
		Short: "Tag compliance reports and scan history",
	}

	cmd.AddCommand(newComplianceReportCmd())
	cmd.AddCommand(newComplianceScansCmd())
	cmd.AddCommand(newComplianceScanCmd())

	return cmd
}

func newComplianceReportCmd() *cobra.Command {
	var requiredTags []string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run an on-demand compliance report",
		Long: `Run an on-demand compliance report across all resource types.
Without --required-tags the server falls back to its configured tag policy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			report, err := apiClient.Compliance().Report(ctx, requiredTags)
			if err != nil {
				return fmt.Errorf("report failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(report)
			}

			fmt.Printf("Required tags: %s\n\n", strings.Join(report.RequiredTags, ", "))

			table := NewTable("TYPE", "ID", "NAME", "COMPLIANT", "MISSING")
			for _, r := range report.Resources {
				table.AddRow(
					r.Type,
					r.ID,
					truncate(r.Name, 30),
					formatCompliant(r.Compliant),
					strings.Join(r.MissingTags, ","),
				)
			}
			table.Render()

			fmt.Printf("\n%d/%d compliant (%.1f%%)\n",
				report.Summary.CompliantResources,
				report.Summary.TotalResources,
				report.Summary.ComplianceRate*100)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&requiredTags, "required-tags", nil, "required tag keys (defaults to the server's policy)")

	return cmd
}

func newComplianceScansCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scans",
		Short: "List recent scheduled scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			scans, err := apiClient.Compliance().ListScans(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list scans: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(scans)
			}

			table := NewTable("ID", "STARTED", "RESOURCES", "COMPLIANT", "RATE")
			for _, s := range scans {
				table.AddRow(
					s.ID,
					s.StartedAt.Local().Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%d", s.TotalResources),
					fmt.Sprintf("%d", s.CompliantResources),
					fmt.Sprintf("%.1f%%", s.ComplianceRate*100),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "max rows (server default if 0)")

	return cmd
}

func newComplianceScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <id>",
		Short: "Show one stored scan with its full report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			scan, err := apiClient.Compliance().GetScan(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get scan: %w", err)
			}

			// Full reports are too wide for a table
			return printOutput(scan)
		},
	}
}
