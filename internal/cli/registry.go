package cli

import (
	"fmt"
	"text/tabwriter"

	"learnstyle-workers/pkg/registry"

	"github.com/spf13/cobra"
)

const defaultRegistryPath = "configs/activity-registry.json"

func newRegistryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry of worker task types",
	}
	cmd.PersistentFlags().StringVar(&path, "path", defaultRegistryPath, "path to registry file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK TYPE\tSTATUS\tTIMEOUT\tRETRIES")
			for _, a := range reg.Activities {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(validate, list)
	return cmd
}
