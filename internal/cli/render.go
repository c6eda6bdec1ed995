package cli

import (
	"fmt"
	"strings"

	"github.com/go-notification-api/internal/config"
	"github.com/go-notification-api/internal/infrastructure/smtp"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "render <template> [key=value...]",
		Short: "Render an email template to stdout",
		Long:  "Render one of the email templates with the given replacements, as the service would before mailing it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replacements := make(map[string]string, len(args)-1)
			for _, kv := range args[1:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid replacement %q (want key=value)", kv)
				}
				replacements[k] = v
			}

			renderer, err := smtp.NewRenderer(templatesDir(dir))
			if err != nil {
				return err
			}
			html, err := renderer.Render(args[0], replacements)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "template directory, overrides TEMPLATES_DIR")
	return cmd
}

func newTemplatesCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List available email templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := smtp.NewRenderer(templatesDir(dir))
			if err != nil {
				return err
			}
			for _, name := range renderer.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "template directory, overrides TEMPLATES_DIR")
	return cmd
}

func templatesDir(flag string) string {
	if flag != "" {
		return flag
	}
	return config.Load().TemplatesDir
}
