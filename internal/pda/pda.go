// Package pda derives the program's deterministic account addresses.
//
// Addresses act as content-derived lookup keys rather than pointers: every
// instruction re-derives the expected address for each role and compares
// it against the account the caller supplied. Derivation is a pure
// function of (program id, role tag, canonical mint pair).
package pda

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Role tags used as PDA seed prefixes.
const (
	SystemStateSeed  = "system_state"
	MainTreasurySeed = "main_treasury"
	PoolStateSeed    = "pool_state"
	TokenAVaultSeed  = "token_a_vault"
	TokenBVaultSeed  = "token_b_vault"
	LpMintASeed      = "lp_mint_a"
	LpMintBSeed      = "lp_mint_b"
)

// Deriver derives PDAs for one program id.
type Deriver struct {
	programID solana.PublicKey
}

// NewDeriver creates a Deriver for the given program id.
func NewDeriver(programID solana.PublicKey) *Deriver {
	return &Deriver{programID: programID}
}

// ProgramID returns the program id the deriver was built with.
func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

// SystemState derives the system-state singleton address.
func (d *Deriver) SystemState() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(SystemStateSeed)}, d.programID)
}

// MainTreasury derives the main treasury address.
func (d *Deriver) MainTreasury() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(MainTreasurySeed)}, d.programID)
}

// poolScoped derives a pool-scoped address from a role tag and the
// canonically ordered mint pair. Callers must pass mints already ordered.
func (d *Deriver) poolScoped(tag string, tokenAMint, tokenBMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(tag),
		tokenAMint.Bytes(),
		tokenBMint.Bytes(),
	}
	return solana.FindProgramAddress(seeds, d.programID)
}

// PoolState derives the pool-state address for an ordered mint pair.
func (d *Deriver) PoolState(tokenAMint, tokenBMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.poolScoped(PoolStateSeed, tokenAMint, tokenBMint)
}

// TokenAVault derives the token A vault address.
func (d *Deriver) TokenAVault(tokenAMint, tokenBMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.poolScoped(TokenAVaultSeed, tokenAMint, tokenBMint)
}

// TokenBVault derives the token B vault address.
func (d *Deriver) TokenBVault(tokenAMint, tokenBMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.poolScoped(TokenBVaultSeed, tokenAMint, tokenBMint)
}

// LpMintA derives the side-A LP mint address.
func (d *Deriver) LpMintA(tokenAMint, tokenBMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.poolScoped(LpMintASeed, tokenAMint, tokenBMint)
}

// LpMintB derives the side-B LP mint address.
func (d *Deriver) LpMintB(tokenAMint, tokenBMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.poolScoped(LpMintBSeed, tokenAMint, tokenBMint)
}

// PoolAddresses bundles every pool-scoped PDA with its bump.
type PoolAddresses struct {
	PoolState     solana.PublicKey
	PoolStateBump uint8

	TokenAVault     solana.PublicKey
	TokenAVaultBump uint8

	TokenBVault     solana.PublicKey
	TokenBVaultBump uint8

	LpMintA     solana.PublicKey
	LpMintABump uint8

	LpMintB     solana.PublicKey
	LpMintBBump uint8
}

// DerivePoolAddresses derives all five pool-scoped PDAs for an ordered
// mint pair.
func (d *Deriver) DerivePoolAddresses(tokenAMint, tokenBMint solana.PublicKey) (*PoolAddresses, error) {
	var (
		pa  PoolAddresses
		err error
	)
	if pa.PoolState, pa.PoolStateBump, err = d.PoolState(tokenAMint, tokenBMint); err != nil {
		return nil, err
	}
	if pa.TokenAVault, pa.TokenAVaultBump, err = d.TokenAVault(tokenAMint, tokenBMint); err != nil {
		return nil, err
	}
	if pa.TokenBVault, pa.TokenBVaultBump, err = d.TokenBVault(tokenAMint, tokenBMint); err != nil {
		return nil, err
	}
	if pa.LpMintA, pa.LpMintABump, err = d.LpMintA(tokenAMint, tokenBMint); err != nil {
		return nil, err
	}
	if pa.LpMintB, pa.LpMintBBump, err = d.LpMintB(tokenAMint, tokenBMint); err != nil {
		return nil, err
	}
	return &pa, nil
}

// CanonicalOrder orders a mint pair by 32-byte lexicographic comparison.
// It returns the ordered pair and whether the inputs were swapped, so the
// caller can swap the matching ratio sides consistently.
func CanonicalOrder(mintX, mintY solana.PublicKey) (tokenA, tokenB solana.PublicKey, swapped bool) {
	if bytes.Compare(mintX.Bytes(), mintY.Bytes()) > 0 {
		return mintY, mintX, true
	}
	return mintX, mintY, false
}
