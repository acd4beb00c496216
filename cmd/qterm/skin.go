package main

import (
	"github.com/spf13/cobra"

	"github.com/qterm-dev/qterm/internal/config"
	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/output"
	"github.com/qterm-dev/qterm/internal/paths"
	"github.com/qterm-dev/qterm/internal/skin"
)

func newSkinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skin",
		Short: "Manage terminal skins",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List available skins",
		Example: `  qterm skin list`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			names := skin.Names()
			current := config.Load().Skin()

			if out.JSON {
				return out.PrintJSON(map[string]interface{}{"current": current, "skins": names})
			}

			for _, name := range names {
				if name == current {
					out.Print("%s (current)\n", name)
				} else {
					out.Print("%s\n", name)
				}
			}

			if dir, err := paths.SkinsDir(); err == nil {
				out.Muted("custom skins: %s/<name>.toml", dir)
			}

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "use <name>",
		Short:   "Set the default skin",
		Example: `  qterm skin use hal-red`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			sk, err := skin.Load(args[0])
			if err != nil || sk.Name != args[0] {
				return clierrors.New(clierrors.ExitConfig, "Unknown skin "+args[0]).
					WithHint("Run 'qterm skin list' for available skins")
			}

			if err := config.Load().Set("ui.skin", args[0]); err != nil {
				return clierrors.Wrap(clierrors.ExitConfig, "Cannot persist skin choice", err)
			}

			out.Success("Default skin set to %s", args[0])

			return nil
		},
	})

	return cmd
}
