// Package treasury manages the central fee treasury: cooldown-gated
// authority withdrawals, unconditional donations, and batch consolidation
// of pool-level pending fees.
package treasury

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/state"
)

// Consolidation batch bounds per instruction.
const (
	MinConsolidationBatch = 1
	MaxConsolidationBatch = 20
)

// Accountant performs treasury operations.
type Accountant struct {
	// cooldown is the minimum interval between authority withdrawals,
	// in seconds.
	cooldown int64
	log      *slog.Logger
}

// NewAccountant creates an Accountant with the given withdrawal cooldown.
func NewAccountant(cooldownSeconds int64, log *slog.Logger) *Accountant {
	if log == nil {
		log = slog.Default()
	}
	return &Accountant{cooldown: cooldownSeconds, log: log}
}

// Consolidate sweeps pending fees from the listed pools into the main
// treasury. While the system is paused every listed pool is swept;
// otherwise only fully paused pools are eligible and the rest are
// skipped. A pool with nothing pending is a no-op, not an error.
func (a *Accountant) Consolidate(tx *ledger.Tx, systemKey, treasuryKey solana.PublicKey, poolKeys []solana.PublicKey, now int64) error {
	if len(poolKeys) < MinConsolidationBatch || len(poolKeys) > MaxConsolidationBatch {
		return errors.ErrInvalidPoolCount
	}

	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	treas, err := state.LoadTreasury(tx, treasuryKey)
	if err != nil {
		return err
	}

	var sweptTotal uint64
	for _, poolKey := range poolKeys {
		pool, err := state.LoadPool(tx, poolKey)
		if err != nil {
			return err
		}
		if !sys.IsPaused && !pool.FullyPaused() {
			continue
		}

		liquidityFees := pool.CollectedLiquidityFees
		swapFees := pool.CollectedSwapContractFees
		swept := pool.DrainPendingFees(now)
		if swept == 0 {
			continue
		}

		if err := tx.TransferLamports(poolKey, treasuryKey, swept); err != nil {
			return err
		}
		treas.AddConsolidatedFees(liquidityFees, swapFees, now)
		if err := state.StorePool(tx, poolKey, pool); err != nil {
			return err
		}
		sweptTotal += swept
	}

	if err := state.StoreTreasury(tx, treasuryKey, treas); err != nil {
		return err
	}

	a.log.Info("fees consolidated",
		"pools", len(poolKeys),
		"swept_lamports", sweptTotal)
	return nil
}

// Withdraw transfers amount out of the treasury to the recipient. Admin
// authority only, gated by the withdrawal cooldown. amount zero means
// the full available balance.
func (a *Accountant) Withdraw(tx *ledger.Tx, systemKey, treasuryKey, signer, recipient solana.PublicKey, amount uint64, now int64) error {
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	if !sys.IsAdmin(signer) {
		return errors.ErrUnauthorized
	}

	treas, err := state.LoadTreasury(tx, treasuryKey)
	if err != nil {
		return err
	}
	if treas.LastWithdrawalTimestamp != 0 && now < treas.LastWithdrawalTimestamp+a.cooldown {
		return errors.ErrCooldownActive.WithDetails(map[string]any{
			"retry_at": treas.LastWithdrawalTimestamp + a.cooldown,
		})
	}

	available := treas.TotalBalance
	if amount == 0 {
		amount = available
	}
	if amount == 0 || amount > available {
		return errors.InsufficientFunds(amount, available)
	}

	if err := tx.TransferLamports(treasuryKey, recipient, amount); err != nil {
		return err
	}
	treas.RecordWithdrawal(amount, now)
	if err := state.StoreTreasury(tx, treasuryKey, treas); err != nil {
		return err
	}

	a.log.Info("treasury withdrawal",
		"amount", amount,
		"recipient", recipient.String())
	return nil
}

// Donate moves amount from the donor into the treasury. Anyone may
// donate at any time; donations bypass the cooldown and every pause.
func (a *Accountant) Donate(tx *ledger.Tx, treasuryKey, donor solana.PublicKey, amount uint64, now int64) error {
	if amount == 0 {
		return errors.ErrZeroAmount
	}
	treas, err := state.LoadTreasury(tx, treasuryKey)
	if err != nil {
		return err
	}
	if err := tx.TransferLamports(donor, treasuryKey, amount); err != nil {
		return err
	}
	treas.AddDonation(amount, now)
	if err := state.StoreTreasury(tx, treasuryKey, treas); err != nil {
		return err
	}

	a.log.Info("donation received", "amount", amount, "donor", donor.String())
	return nil
}

// LogInfo emits a treasury snapshot through the program log.
func (a *Accountant) LogInfo(tx *ledger.Tx, treasuryKey solana.PublicKey) error {
	treas, err := state.LoadTreasury(tx, treasuryKey)
	if err != nil {
		return err
	}
	a.log.Info("treasury info",
		"total_balance", treas.TotalBalance,
		"total_withdrawn", treas.TotalWithdrawn,
		"total_fees_collected", treas.TotalFeesCollected(),
		"pool_creation_count", treas.PoolCreationCount,
		"donation_count", treas.DonationCount,
		"consolidation_count", treas.ConsolidationCount,
		"last_withdrawal_timestamp", treas.LastWithdrawalTimestamp,
		"last_update_timestamp", treas.LastUpdateTimestamp)
	return nil
}
