package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davincilabs/fixedratio/pkg/version"
)

var (
	// Version information set at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the CLI build information and the hosted contract version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fixedratio CLI\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Date: %s\n", BuildDate)
		fmt.Printf("  Contract:   %s (schema v%d)\n", version.ContractVersion, version.SchemaVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
