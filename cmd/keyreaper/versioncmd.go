package keyreaper

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/update"
)

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and check for a newer release",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("keyreaper v" + version)
			if flagNoUpdateCheck {
				return
			}
			latest, newer, err := update.Check(version, false)
			switch {
			case err != nil:
				// offline or rate-limited; the version line already printed
			case newer && latest != "":
				fmt.Printf("newer release available: v%s (run 'keyreaper update')\n", latest)
			default:
				fmt.Println("up to date")
			}
		},
	}
	rootCmd.AddCommand(versionCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update keyreaper to the latest release",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := selfUpdate(); err != nil {
				return fmt.Errorf("self-update failed: %w", err)
			}
			fmt.Println("Updated to the latest release.")
			return nil
		},
	}
	rootCmd.AddCommand(updateCmd)
}
