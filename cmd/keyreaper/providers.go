package keyreaper

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List remediation providers",
		RunE: func(_ *cobra.Command, _ []string) error {
			// A dry-run registry is enough for names; no credentials needed.
			registry, err := buildRegistry(context.Background(), config.FileConfig{}, config.FileConfig{}, true)
			if err != nil {
				return err
			}
			for _, name := range registry.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
