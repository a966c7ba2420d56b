package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/davincilabs/fixedratio/internal/pda"
)

var pdaCmd = &cobra.Command{
	Use:   "pda",
	Short: "Derive program addresses",
	Long:  `Derive the deterministic addresses the program uses for its state accounts.`,
}

var pdaSystemCmd = &cobra.Command{
	Use:   "system",
	Short: "Derive the system state and treasury addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		deriver, err := configuredDeriver()
		if err != nil {
			return err
		}

		systemKey, systemBump, err := deriver.SystemState()
		if err != nil {
			return err
		}
		treasuryKey, treasuryBump, err := deriver.MainTreasury()
		if err != nil {
			return err
		}

		fmt.Printf("Program:       %s\n", deriver.ProgramID())
		fmt.Printf("System State:  %s (bump %d)\n", systemKey, systemBump)
		fmt.Printf("Main Treasury: %s (bump %d)\n", treasuryKey, treasuryBump)
		return nil
	},
}

var pdaPoolCmd = &cobra.Command{
	Use:   "pool [mint-x] [mint-y]",
	Short: "Derive the pool addresses for a token pair",
	Long:  `Derive the pool state, vault, and LP mint addresses for a token pair. Mint order does not matter; the pair is canonicalized first.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mintX, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid mint %q: %w", args[0], err)
		}
		mintY, err := solana.PublicKeyFromBase58(args[1])
		if err != nil {
			return fmt.Errorf("invalid mint %q: %w", args[1], err)
		}

		deriver, err := configuredDeriver()
		if err != nil {
			return err
		}

		tokenA, tokenB, swapped := pda.CanonicalOrder(mintX, mintY)
		pa, err := deriver.DerivePoolAddresses(tokenA, tokenB)
		if err != nil {
			return err
		}

		fmt.Printf("Token A Mint:  %s\n", tokenA)
		fmt.Printf("Token B Mint:  %s\n", tokenB)
		if swapped {
			fmt.Println("(input order was swapped to canonical order)")
		}
		fmt.Printf("Pool State:    %s (bump %d)\n", pa.PoolState, pa.PoolStateBump)
		fmt.Printf("Token A Vault: %s (bump %d)\n", pa.TokenAVault, pa.TokenAVaultBump)
		fmt.Printf("Token B Vault: %s (bump %d)\n", pa.TokenBVault, pa.TokenBVaultBump)
		fmt.Printf("LP Mint A:     %s (bump %d)\n", pa.LpMintA, pa.LpMintABump)
		fmt.Printf("LP Mint B:     %s (bump %d)\n", pa.LpMintB, pa.LpMintBBump)
		return nil
	},
}

func configuredDeriver() (*pda.Deriver, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	programID, err := solana.PublicKeyFromBase58(cfg.Program.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}
	return pda.NewDeriver(programID), nil
}

func init() {
	rootCmd.AddCommand(pdaCmd)
	pdaCmd.AddCommand(pdaSystemCmd)
	pdaCmd.AddCommand(pdaPoolCmd)
}
