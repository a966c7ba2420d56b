package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davincilabs/fixedratio/internal/keys"
)

var keysOutFile string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage keypairs",
}

var keysNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new keypair",
	RunE: func(cmd *cobra.Command, args []string) error {
		k := keys.Generate()
		if keysOutFile != "" {
			if err := k.Save(keysOutFile); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", keysOutFile)
		}
		fmt.Printf("public key: %s\n", k)
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show [keypair.json]",
	Short: "Print the public key of a keypair file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := keys.FromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("public key: %s\n", k)
		return nil
	},
}

func init() {
	keysNewCmd.Flags().StringVarP(&keysOutFile, "out", "o", "", "write the keypair to a file")
	keysCmd.AddCommand(keysNewCmd)
	keysCmd.AddCommand(keysShowCmd)
	rootCmd.AddCommand(keysCmd)
}
