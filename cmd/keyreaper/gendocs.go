package keyreaper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/config"
)

// gendocs regenerates the remediation routes section in README.md between
// the markers <!-- BEGIN:REMEDIATION_ROUTES --> and <!-- END:REMEDIATION_ROUTES -->.
func init() {
	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Regenerate README remediation routes",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := "README.md"
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			start := []byte("<!-- BEGIN:REMEDIATION_ROUTES -->")
			end := []byte("<!-- END:REMEDIATION_ROUTES -->")
			i := bytes.Index(b, start)
			j := bytes.Index(b, end)
			if i < 0 || j < 0 || j <= i {
				return fmt.Errorf("markers not found in README.md")
			}

			registry, err := buildRegistry(context.Background(), config.FileConfig{}, config.FileConfig{}, true)
			if err != nil {
				return err
			}

			// Keep route blurbs in sync lightly; this is best-effort.
			blurbs := map[string]string{
				"aws": "categories containing `aws`/`amazon` whose secret starts with `AKIA`; resolves the owning IAM user and deactivates the key. AWS-claimed values without the `AKIA` prefix are treated as fragments and skipped.",
			}
			var out strings.Builder
			out.WriteString("\nRoutes (run `keyreaper providers` for the live list):\n\n")
			for _, name := range registry.Names() {
				blurb, ok := blurbs[name]
				if !ok {
					blurb = "no description yet."
				}
				out.WriteString("- `" + name + "`: " + blurb + "\n")
			}
			out.WriteString("- everything else: catalogued as a general secret with a redacted preview (first 20 characters).\n")
			out.WriteString("\nKey outcomes: `deactivated`, `not_found`, `failed`.\n")

			var nb bytes.Buffer
			nb.Write(b[:i])
			nb.Write(start)
			nb.WriteString("\n")
			nb.WriteString(out.String())
			nb.Write(end)
			nb.Write(b[j+len(end):])
			return os.WriteFile(path, nb.Bytes(), 0644)
		},
	}
	rootCmd.AddCommand(cmd)
}
