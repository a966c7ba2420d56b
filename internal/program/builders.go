package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/pda"
	"github.com/davincilabs/fixedratio/internal/state"
)

// Account-meta builders for client tooling and tests. Each builder
// produces the exact account list the matching instruction expects.

// InitializeProgramAccounts builds the account list for InitializeProgram.
func (e *Engine) InitializeProgramAccounts(admin solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(admin, true, true),
		solana.Meta(solana.SystemProgramID),
		solana.NewAccountMeta(e.systemKey, true, false),
		solana.NewAccountMeta(e.treasuryKey, true, false),
		solana.Meta(solana.SysVarRentPubkey),
	}
}

// InitializePoolAccounts builds the account list for InitializePool.
// Mints are passed in caller order; all five pool PDAs are derived from
// the canonical ordering.
func (e *Engine) InitializePoolAccounts(payer, mintX, mintY solana.PublicKey) ([]*solana.AccountMeta, error) {
	tokenA, tokenB, _ := pda.CanonicalOrder(mintX, mintY)
	pa, err := e.deriver.DerivePoolAddresses(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	return []*solana.AccountMeta{
		solana.NewAccountMeta(payer, true, true),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(e.systemKey),
		solana.NewAccountMeta(pa.PoolState, true, false),
		solana.Meta(solana.TokenProgramID),
		solana.NewAccountMeta(e.treasuryKey, true, false),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(mintX),
		solana.Meta(mintY),
		solana.NewAccountMeta(pa.TokenAVault, true, false),
		solana.NewAccountMeta(pa.TokenBVault, true, false),
		solana.NewAccountMeta(pa.LpMintA, true, false),
		solana.NewAccountMeta(pa.LpMintB, true, false),
	}, nil
}

// LiquidityAccounts builds the account list shared by Deposit and
// Withdraw, resolving the pool side that mint belongs to.
func (e *Engine) LiquidityAccounts(pool *state.PoolState, poolKey, user, mint, userToken, userLp solana.PublicKey) []*solana.AccountMeta {
	vault, lpMint := pool.TokenAVault, pool.LpTokenAMint
	if mint == pool.TokenBMint {
		vault, lpMint = pool.TokenBVault, pool.LpTokenBMint
	}
	return []*solana.AccountMeta{
		solana.NewAccountMeta(user, true, true),
		solana.Meta(e.systemKey),
		solana.NewAccountMeta(poolKey, true, false),
		solana.Meta(mint),
		solana.NewAccountMeta(userToken, true, false),
		solana.NewAccountMeta(vault, true, false),
		solana.NewAccountMeta(lpMint, true, false),
		solana.NewAccountMeta(userLp, true, false),
		solana.Meta(solana.TokenProgramID),
	}
}

// SwapAccounts builds the account list for Swap, orienting the vaults
// to the input mint.
func (e *Engine) SwapAccounts(pool *state.PoolState, poolKey, user, inputMint, userIn, userOut solana.PublicKey) []*solana.AccountMeta {
	inVault, outVault := pool.TokenAVault, pool.TokenBVault
	if inputMint == pool.TokenBMint {
		inVault, outVault = pool.TokenBVault, pool.TokenAVault
	}
	return []*solana.AccountMeta{
		solana.NewAccountMeta(user, true, true),
		solana.Meta(e.systemKey),
		solana.NewAccountMeta(poolKey, true, false),
		solana.Meta(inputMint),
		solana.NewAccountMeta(userIn, true, false),
		solana.NewAccountMeta(inVault, true, false),
		solana.NewAccountMeta(outVault, true, false),
		solana.NewAccountMeta(userOut, true, false),
		solana.Meta(solana.TokenProgramID),
	}
}

// SystemControlAccounts builds the [signer, system state] pair used by
// the pause and admin change instructions.
func (e *Engine) SystemControlAccounts(signer solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(signer, false, true),
		solana.NewAccountMeta(e.systemKey, true, false),
	}
}

// FinalizeAdminChangeAccounts builds the single-account list for
// FinalizeAdminChange.
func (e *Engine) FinalizeAdminChangeAccounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(e.systemKey, true, false),
	}
}

// PoolControlAccounts builds the [signer, system state, pool state]
// triple used by the pool pause and owner-only instructions.
func (e *Engine) PoolControlAccounts(signer, poolKey solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(signer, false, true),
		solana.Meta(e.systemKey),
		solana.NewAccountMeta(poolKey, true, false),
	}
}

// WithdrawTreasuryFeesAccounts builds the account list for
// WithdrawTreasuryFees.
func (e *Engine) WithdrawTreasuryFeesAccounts(admin, recipient solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(admin, false, true),
		solana.Meta(e.systemKey),
		solana.NewAccountMeta(e.treasuryKey, true, false),
		solana.NewAccountMeta(recipient, true, false),
	}
}

// TreasuryInfoAccounts builds the single-account list for GetTreasuryInfo.
func (e *Engine) TreasuryInfoAccounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.Meta(e.treasuryKey),
	}
}

// ConsolidateAccounts builds the account list for ConsolidatePoolFees.
func (e *Engine) ConsolidateAccounts(poolKeys []solana.PublicKey) []*solana.AccountMeta {
	metas := []*solana.AccountMeta{
		solana.Meta(e.systemKey),
		solana.NewAccountMeta(e.treasuryKey, true, false),
	}
	for _, k := range poolKeys {
		metas = append(metas, solana.NewAccountMeta(k, true, false))
	}
	return metas
}

// DonateAccounts builds the account list for DonateSol.
func (e *Engine) DonateAccounts(donor solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(donor, true, true),
		solana.NewAccountMeta(e.treasuryKey, true, false),
	}
}
