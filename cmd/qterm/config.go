package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/config"
	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage qterm configuration",
		Long: `View and change persisted settings: backend preference, timeouts, and
the UI skin. Values are stored in the user config file and can be
overridden per run with QTERM_* environment variables.`,
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Print one configuration value",
		Example: `  qterm config get backend`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			value := cfg.Get(args[0])
			if value == nil {
				return clierrors.New(clierrors.ExitConfig, fmt.Sprintf("Unknown config key %q", args[0])).
					WithHint("Run 'qterm config list' to see available keys")
			}

			if out.JSON {
				return out.PrintJSON(map[string]interface{}{args[0]: value})
			}

			out.Print("%v\n", value)

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set and persist one configuration value",
		Example: `  qterm config set backend ssh
  qterm config set timeouts.shell 60
  qterm config set ui.skin hal-red`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key, value := args[0], args[1]

			if key == "backend" {
				if _, err := backend.ParsePreference(value); err != nil {
					return clierrors.New(clierrors.ExitUsage, err.Error())
				}
			}

			cfg := config.Load()
			if err := cfg.Set(key, value); err != nil {
				return clierrors.Wrap(clierrors.ExitConfig, "Cannot persist configuration", err)
			}

			out.Success("%s = %s", key, value)

			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "Show all configuration values",
		Example: `  qterm config list`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			all := cfg.All()

			if out.JSON {
				return out.PrintJSON(all)
			}

			flat := map[string]interface{}{}
			flatten("", all, flat)

			keys := make([]string, 0, len(flat))
			for k := range flat {
				keys = append(keys, k)
			}

			sort.Strings(keys)

			for _, k := range keys {
				out.Print("%s = %v\n", k, flat[k])
			}

			return nil
		},
	}
}

func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		if nested, ok := v.(map[string]interface{}); ok {
			flatten(key, nested, out)

			continue
		}

		out[key] = v
	}
}
