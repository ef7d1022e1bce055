package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lakespend/lakespend/pkg/client"
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Read and update per-resource tags",
	}

	cmd.AddCommand(newTagGetCmd())
	cmd.AddCommand(newTagSetCmd())
	cmd.AddCommand(newTagRmCmd())

	return cmd
}

func newTagGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show one resource's tags",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			result, err := apiClient.Tags().Get(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get tags: %w", err)
			}

			return printTags(result)
		},
	}
}

func newTagSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <type> <id> <key=value>...",
		Short: "Set tags on one resource",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := parseTagArgs(args[2:])
			if err != nil {
				return err
			}

			ctx := context.Background()
			result, err := apiClient.Tags().Update(ctx, args[0], args[1], client.TagDelta{Set: set})
			if err != nil {
				return fmt.Errorf("failed to update tags: %w", err)
			}

			return printTags(result)
		},
	}
}

func newTagRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <type> <id> <key>...",
		Short: "Remove tags from one resource",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			result, err := apiClient.Tags().Update(ctx, args[0], args[1], client.TagDelta{Remove: args[2:]})
			if err != nil {
				return fmt.Errorf("failed to remove tags: %w", err)
			}

			return printTags(result)
		},
	}
}

func printTags(result *client.TagsResult) error {
	if getOutputFormat() != "table" {
		return printOutput(result)
	}

	fmt.Printf("%s/%s\n", result.Type, result.ID)
	if len(result.Tags) == 0 {
		fmt.Println("  (no tags)")
		return nil
	}

	keys := make([]string, 0, len(result.Tags))
	for k := range result.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := NewTable("KEY", "VALUE")
	for _, k := range keys {
		table.AddRow(k, result.Tags[k])
	}
	table.Render()
	return nil
}
