// Package registry creates pool records and manages their lifecycle
// flags. Pools are never deleted; the registry can only pause their
// operation groups or restrict swap access.
package registry

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/pda"
	"github.com/davincilabs/fixedratio/internal/state"
)

// Registry creates and manages pool records.
type Registry struct {
	deriver         *pda.Deriver
	registrationFee uint64
	log             *slog.Logger
}

// NewRegistry creates a Registry charging the given registration fee.
func NewRegistry(deriver *pda.Deriver, registrationFee uint64, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{deriver: deriver, registrationFee: registrationFee, log: log}
}

// CreatePoolParams carries the resolved accounts and ratio for pool
// creation. Mints and ratio sides are in caller-supplied order; the
// registry canonicalizes both together.
type CreatePoolParams struct {
	Payer       solana.PublicKey
	SystemState solana.PublicKey
	PoolState   solana.PublicKey
	Treasury    solana.PublicKey

	MintX solana.PublicKey
	MintY solana.PublicKey

	VaultA  solana.PublicKey
	VaultB  solana.PublicKey
	LpMintA solana.PublicKey
	LpMintB solana.PublicKey

	// RatioXNumerator : RatioYDenominator is oriented to MintX : MintY
	// as supplied.
	RatioXNumerator   uint64
	RatioYDenominator uint64
}

// CreatePool validates, charges the registration fee, creates the vault
// and LP-mint accounts at zero balance/supply, and persists the pool
// record. The fee transfer and the record creation share one Tx, so they
// succeed or fail together.
func (r *Registry) CreatePool(tx *ledger.Tx, p CreatePoolParams, now int64) error {
	sys, err := state.LoadSystem(tx, p.SystemState)
	if err != nil {
		return err
	}
	if sys.IsPaused {
		return errors.ErrSystemPaused
	}

	if p.MintX.Equals(p.MintY) {
		return errors.ErrInvalidTokenPair
	}
	if p.RatioXNumerator == 0 || p.RatioYDenominator == 0 {
		return errors.ErrInvalidRatio
	}

	mintX := tx.Mint(p.MintX)
	mintY := tx.Mint(p.MintY)
	if mintX == nil || mintY == nil {
		return errors.ErrInvalidMint
	}

	// Canonicalize so the stored ratio always describes
	// (smaller mint : larger mint), whatever order the caller used.
	tokenAMint, tokenBMint, swapped := pda.CanonicalOrder(p.MintX, p.MintY)
	ratioA, ratioB := p.RatioXNumerator, p.RatioYDenominator
	decimalsA, decimalsB := mintX.Decimals, mintY.Decimals
	if swapped {
		ratioA, ratioB = ratioB, ratioA
		decimalsA, decimalsB = decimalsB, decimalsA
	}

	addrs, err := r.deriver.DerivePoolAddresses(tokenAMint, tokenBMint)
	if err != nil {
		return err
	}
	for _, check := range []struct {
		role     string
		expected solana.PublicKey
		got      solana.PublicKey
	}{
		{pda.PoolStateSeed, addrs.PoolState, p.PoolState},
		{pda.TokenAVaultSeed, addrs.TokenAVault, p.VaultA},
		{pda.TokenBVaultSeed, addrs.TokenBVault, p.VaultB},
		{pda.LpMintASeed, addrs.LpMintA, p.LpMintA},
		{pda.LpMintBSeed, addrs.LpMintB, p.LpMintB},
	} {
		if !check.expected.Equals(check.got) {
			return errors.AddressMismatch(check.role, check.expected.String(), check.got.String())
		}
	}

	if acc := tx.Account(p.PoolState); acc != nil && len(acc.Data) > 0 {
		return errors.ErrPoolAlreadyExists
	}

	treas, err := state.LoadTreasury(tx, p.Treasury)
	if err != nil {
		return err
	}
	if err := tx.TransferLamports(p.Payer, p.Treasury, r.registrationFee); err != nil {
		return err
	}
	treas.AddPoolCreationFee(r.registrationFee, now)
	if err := state.StoreTreasury(tx, p.Treasury, treas); err != nil {
		return err
	}

	// Vaults start empty and LP mints at zero supply; the pool state
	// account is the authority for all four.
	tx.CreateToken(addrs.TokenAVault, tokenAMint, addrs.PoolState)
	tx.CreateToken(addrs.TokenBVault, tokenBMint, addrs.PoolState)
	tx.CreateMint(addrs.LpMintA, addrs.PoolState, decimalsA)
	tx.CreateMint(addrs.LpMintB, addrs.PoolState, decimalsB)

	pool := &state.PoolState{
		Owner:             p.Payer,
		TokenAMint:        tokenAMint,
		TokenBMint:        tokenBMint,
		TokenAVault:       addrs.TokenAVault,
		TokenBVault:       addrs.TokenBVault,
		LpTokenAMint:      addrs.LpMintA,
		LpTokenBMint:      addrs.LpMintB,
		RatioANumerator:   ratioA,
		RatioBDenominator: ratioB,
		PoolAuthorityBump: addrs.PoolStateBump,
		TokenAVaultBump:   addrs.TokenAVaultBump,
		TokenBVaultBump:   addrs.TokenBVaultBump,
		LpTokenAMintBump:  addrs.LpMintABump,
		LpTokenBMintBump:  addrs.LpMintBBump,
	}
	if ratioA == 1 || ratioB == 1 {
		pool.SetFlags(state.FlagOneToManyRatio)
	}

	tx.CreateAccount(addrs.PoolState, r.deriver.ProgramID())
	if err := state.StorePool(tx, addrs.PoolState, pool); err != nil {
		return err
	}

	r.log.Info("pool created",
		"pool", addrs.PoolState.String(),
		"token_a_mint", tokenAMint.String(),
		"token_b_mint", tokenBMint.String(),
		"ratio_a", ratioA,
		"ratio_b", ratioB)
	return nil
}

// PausePool sets pause flags on a pool. Pool owner only, idempotent per
// flag, blocked while the system is paused.
func (r *Registry) PausePool(tx *ledger.Tx, systemKey, poolKey, signer solana.PublicKey, flags uint8) error {
	pool, err := r.loadForPauseChange(tx, systemKey, poolKey, signer, flags)
	if err != nil {
		return err
	}
	pool.SetFlags(flags)
	return state.StorePool(tx, poolKey, pool)
}

// UnpausePool clears pause flags on a pool. Pool owner only, idempotent
// per flag, blocked while the system is paused.
func (r *Registry) UnpausePool(tx *ledger.Tx, systemKey, poolKey, signer solana.PublicKey, flags uint8) error {
	pool, err := r.loadForPauseChange(tx, systemKey, poolKey, signer, flags)
	if err != nil {
		return err
	}
	pool.ClearFlags(flags)
	return state.StorePool(tx, poolKey, pool)
}

func (r *Registry) loadForPauseChange(tx *ledger.Tx, systemKey, poolKey, signer solana.PublicKey, flags uint8) (*state.PoolState, error) {
	if flags == 0 || flags&^state.PauseFlagAll != 0 {
		return nil, errors.ErrInvalidInstructionData
	}
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return nil, err
	}
	if sys.IsPaused {
		return nil, errors.ErrSystemPaused
	}
	pool, err := state.LoadPool(tx, poolKey)
	if err != nil {
		return nil, err
	}
	if !pool.Owner.Equals(signer) {
		return nil, errors.ErrUnauthorized
	}
	return pool, nil
}

// SetSwapOwnerOnly toggles the owner-only swap restriction and records
// the designated owner. Admin authority only; the designated owner may
// be any account, enabling delegated swap control.
func (r *Registry) SetSwapOwnerOnly(tx *ledger.Tx, systemKey, poolKey, signer solana.PublicKey, enable bool, designatedOwner solana.PublicKey) error {
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	if !sys.IsAdmin(signer) {
		return errors.ErrUnauthorized
	}
	pool, err := state.LoadPool(tx, poolKey)
	if err != nil {
		return err
	}

	if enable {
		if designatedOwner.IsZero() {
			return errors.ErrInvalidInstructionData
		}
		pool.SetFlags(state.FlagOwnerOnlySwaps)
		pool.DesignatedOwner = designatedOwner
	} else {
		pool.ClearFlags(state.FlagOwnerOnlySwaps)
		pool.DesignatedOwner = solana.PublicKey{}
	}

	if err := state.StorePool(tx, poolKey, pool); err != nil {
		return err
	}

	r.log.Info("owner-only swap restriction updated",
		"pool", poolKey.String(),
		"enabled", enable,
		"designated_owner", designatedOwner.String())
	return nil
}
