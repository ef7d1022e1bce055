package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newResourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "List and search workspace resources",
	}

	cmd.AddCommand(newResourceListCmd())
	cmd.AddCommand(newResourceSearchCmd())

	return cmd
}

func newResourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <type>",
		Short: "List resources of one type with their tags",
		Long:  "List resources of one type: cluster, warehouse, job, pipeline or serving-endpoint.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			resources, err := apiClient.Resources().List(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list resources: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(resources)
			}

			table := NewTable("ID", "NAME", "TAGS")
			for _, r := range resources {
				table.AddRow(r.ID, truncate(r.Name, 40), truncate(formatTags(r.Tags), 60))
			}
			table.Render()
			fmt.Printf("\n%d resources\n", len(resources))
			return nil
		},
	}
}

func newResourceSearchCmd() *cobra.Command {
	var key, value string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find resources carrying a tag across all types",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return fmt.Errorf("--key is required")
			}

			var valuePtr *string
			if cmd.Flags().Changed("value") {
				valuePtr = &value
			}

			ctx := context.Background()
			resources, err := apiClient.Resources().Search(ctx, key, valuePtr)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(resources)
			}

			table := NewTable("TYPE", "ID", "NAME", "TAGS")
			for _, r := range resources {
				table.AddRow(r.Type, r.ID, truncate(r.Name, 40), truncate(formatTags(r.Tags), 50))
			}
			table.Render()
			fmt.Printf("\n%d matches\n", len(resources))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "tag key to search for")
	cmd.Flags().StringVar(&value, "value", "", "tag value, exact match (any value if omitted)")

	return cmd
}
