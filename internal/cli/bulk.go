package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lakespend/lakespend/pkg/client"
)

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one tag delta to many resources",
	}

	cmd.AddCommand(newBulkApplyCmd())

	return cmd
}

// bulkFile is the YAML shape accepted by --file
type bulkFile struct {
	Resources []client.ResourceRef `yaml:"resources"`
	Set       map[string]string    `yaml:"set"`
	Remove    []string             `yaml:"remove"`
}

func newBulkApplyCmd() *cobra.Command {
	var (
		file         string
		resourceType string
		ids          []string
		setArgs      []string
		removeKeys   []string
		yes          bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a tag delta to a set of resources",
		Long: `Apply a tag delta to a set of resources, addressed either inline
(--type plus --id, repeatable) or through a YAML file:

    resources:
      - type: cluster
        id: 0601-abc
      - type: job
        id: "421"
    set:
      team: data-eng
    remove:
      - temp

Per-resource failures do not stop the run; the summary lists both
succeeded and failed resources.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildBulkRequest(file, resourceType, ids, setArgs, removeKeys)
			if err != nil {
				return err
			}

			if !yes {
				fmt.Printf("About to update tags on %d resources.\n", len(req.Resources))
				if answer := promptInput("Continue? [y/N]: "); !strings.EqualFold(answer, "y") {
					fmt.Println("Aborted")
					return nil
				}
			}

			ctx := context.Background()
			result, err := apiClient.Bulk().Update(ctx, *req)
			if err != nil {
				return fmt.Errorf("bulk update failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			table := NewTable("TYPE", "ID", "RESULT", "DETAIL")
			for _, item := range result.Succeeded {
				table.AddRow(item.Ref.Type, item.Ref.ID, "ok", truncate(formatTags(item.Tags), 50))
			}
			for _, item := range result.Failed {
				table.AddRow(item.Ref.Type, item.Ref.ID, item.Code, truncate(item.Message, 50))
			}
			table.Render()
			fmt.Printf("\n%d succeeded, %d failed\n", len(result.Succeeded), len(result.Failed))

			if len(result.Failed) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file describing resources and delta")
	cmd.Flags().StringVar(&resourceType, "type", "", "resource type for --id refs")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "resource ID (repeatable, requires --type)")
	cmd.Flags().StringSliceVar(&setArgs, "set", nil, "tag to set as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&removeKeys, "remove", nil, "tag key to remove (repeatable)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func buildBulkRequest(file, resourceType string, ids, setArgs, removeKeys []string) (*client.BulkUpdateRequest, error) {
	var req client.BulkUpdateRequest

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		var bf bulkFile
		if err := yaml.Unmarshal(data, &bf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		req.Resources = bf.Resources
		req.Set = bf.Set
		req.Remove = bf.Remove
	}

	if len(ids) > 0 {
		if resourceType == "" {
			return nil, fmt.Errorf("--id requires --type")
		}
		for _, id := range ids {
			req.Resources = append(req.Resources, client.ResourceRef{Type: resourceType, ID: id})
		}
	}

	if len(setArgs) > 0 {
		set, err := parseTagArgs(setArgs)
		if err != nil {
			return nil, err
		}
		if req.Set == nil {
			req.Set = map[string]string{}
		}
		for k, v := range set {
			req.Set[k] = v
		}
	}
	req.Remove = append(req.Remove, removeKeys...)

	if len(req.Resources) == 0 {
		return nil, fmt.Errorf("no resources given: use --file or --type with --id")
	}
	if len(req.Set) == 0 && len(req.Remove) == 0 {
		return nil, fmt.Errorf("empty delta: use --set or --remove")
	}

	return &req, nil
}
