package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resourceTypes = []string{"cluster", "warehouse", "job", "pipeline", "serving-endpoint"}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and workspace summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{}
				summary["ready"] = apiClient.Readyz(ctx) == nil
				for _, t := range resourceTypes {
					if resources, err := apiClient.Resources().List(ctx, t); err == nil {
						summary[t] = len(resources)
					}
				}
				return printOutput(summary)
			}

			fmt.Println("LakeSpend")
			fmt.Println(strings.Repeat("=", 40))

			if err := apiClient.Readyz(ctx); err != nil {
				fmt.Printf("  Server:            not ready (%v)\n", err)
				return nil
			}
			fmt.Println("  Server:            ready")

			total := 0
			for _, t := range resourceTypes {
				resources, err := apiClient.Resources().List(ctx, t)
				if err != nil {
					fmt.Printf("  %-18s (error: %v)\n", t+"s:", err)
					continue
				}
				fmt.Printf("  %-18s %d\n", t+"s:", len(resources))
				total += len(resources)
			}
			fmt.Printf("  %-18s %d\n", "total:", total)

			return nil
		},
	}
}
