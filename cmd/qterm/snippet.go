package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/output"
	"github.com/qterm-dev/qterm/internal/snippets"
)

func newSnippetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippet <language>",
		Short: "Print a canned hello-world snippet",
		Long: `Print a small built-in code example for a language without a roundtrip
to the AI backend. Use 'qterm snippet list' for available languages.`,
		Example: `  qterm snippet go
  qterm snippet python`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			s, ok := snippets.Lookup(args[0])
			if !ok {
				return clierrors.New(clierrors.ExitGeneral, fmt.Sprintf("No snippet for %q", args[0])).
					WithHint("Run 'qterm snippet list' for available languages")
			}

			if out.JSON {
				return out.PrintJSON(s)
			}

			out.Print("%s", s.Code)

			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List languages with snippets",
		Example: `  qterm snippet list`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			langs := snippets.Languages()

			if out.JSON {
				return out.PrintJSON(langs)
			}

			out.Println(strings.Join(langs, "\n"))

			return nil
		},
	})

	return cmd
}
