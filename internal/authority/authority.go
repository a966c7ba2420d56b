// Package authority manages the admin authority and system pause state.
//
// Authority rotation is a three-state machine: stable, pending, stable.
// A proposed change only becomes activatable after a configurable
// timelock (72 hours by default), which bounds the blast radius of a
// compromised rotation request by guaranteeing observers a reaction
// window. Finalization is deliberately permissionless once the timelock
// has elapsed.
package authority

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/state"
)

// Manager performs admin-authority and pause transitions on SystemState.
type Manager struct {
	// timelock is the propose-to-finalize delay in seconds.
	timelock int64

	programID solana.PublicKey
	log       *slog.Logger
}

// NewManager creates a Manager with the given timelock in seconds.
func NewManager(programID solana.PublicKey, timelockSeconds int64, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{timelock: timelockSeconds, programID: programID, log: log}
}

// InitializeProgram creates the SystemState and MainTreasury records.
// Callable exactly once; the signing account becomes the admin authority.
func (m *Manager) InitializeProgram(tx *ledger.Tx, systemKey, treasuryKey, admin solana.PublicKey, now int64) error {
	if acc := tx.Account(systemKey); acc != nil && len(acc.Data) > 0 {
		return errors.ErrSystemAlreadyExists
	}

	sys := state.NewSystemState(admin)
	tx.CreateAccount(systemKey, m.programID)
	if err := state.StoreSystem(tx, systemKey, sys); err != nil {
		return err
	}

	treas := state.NewMainTreasuryState()
	treas.LastUpdateTimestamp = now
	tx.CreateAccount(treasuryKey, m.programID)
	if err := state.StoreTreasury(tx, treasuryKey, treas); err != nil {
		return err
	}

	m.log.Info("program initialized", "admin", admin.String())
	return nil
}

// ProposeChange records a pending authority change. Only the current
// admin may propose, and only one change may be pending at a time.
func (m *Manager) ProposeChange(tx *ledger.Tx, systemKey, signer, newAuthority solana.PublicKey, now int64) error {
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	if !sys.IsAdmin(signer) {
		return errors.ErrUnauthorized
	}
	if sys.HasPendingChange() {
		return errors.ErrChangeAlreadyPending
	}
	if newAuthority.IsZero() {
		return errors.ErrInvalidInstructionData
	}

	sys.PendingAdminAuthority = newAuthority
	sys.AdminChangeTimestamp = now
	if err := state.StoreSystem(tx, systemKey, sys); err != nil {
		return err
	}

	m.log.Info("admin change proposed",
		"current", sys.AdminAuthority.String(),
		"pending", newAuthority.String(),
		"activatable_at", now+m.timelock)
	return nil
}

// FinalizeChange activates a pending authority change once the timelock
// has elapsed. The boundary is inclusive: finalizing at exactly
// proposal time + timelock succeeds.
func (m *Manager) FinalizeChange(tx *ledger.Tx, systemKey solana.PublicKey, now int64) error {
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	if !sys.HasPendingChange() {
		return errors.ErrNoChangePending
	}
	if now < sys.AdminChangeTimestamp+m.timelock {
		return errors.ErrTimelockNotElapsed.WithDetails(map[string]any{
			"remaining_seconds": sys.AdminChangeTimestamp + m.timelock - now,
		})
	}

	previous := sys.AdminAuthority
	sys.AdminAuthority = sys.PendingAdminAuthority
	sys.ClearPendingChange()
	if err := state.StoreSystem(tx, systemKey, sys); err != nil {
		return err
	}

	m.log.Info("admin change finalized",
		"previous", previous.String(),
		"current", sys.AdminAuthority.String())
	return nil
}

// CancelChange drops a pending authority change. Admin only,
// unconditional otherwise.
func (m *Manager) CancelChange(tx *ledger.Tx, systemKey, signer solana.PublicKey) error {
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	if !sys.IsAdmin(signer) {
		return errors.ErrUnauthorized
	}
	if !sys.HasPendingChange() {
		return errors.ErrNoChangePending
	}

	cancelled := sys.PendingAdminAuthority
	sys.ClearPendingChange()
	if err := state.StoreSystem(tx, systemKey, sys); err != nil {
		return err
	}

	m.log.Info("admin change cancelled", "was_pending", cancelled.String())
	return nil
}

// PauseSystem sets the global pause. Admin only; pausing twice fails.
func (m *Manager) PauseSystem(tx *ledger.Tx, systemKey, signer solana.PublicKey, reasonCode uint8, now int64) error {
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	if !sys.IsAdmin(signer) {
		return errors.ErrUnauthorized
	}
	if sys.IsPaused {
		return errors.ErrSystemAlreadyPaused
	}

	sys.Pause(reasonCode, now)
	if err := state.StoreSystem(tx, systemKey, sys); err != nil {
		return err
	}

	m.log.Warn("system paused", "reason_code", reasonCode)
	return nil
}

// UnpauseSystem clears the global pause. Admin only; unpausing an
// unpaused system fails.
func (m *Manager) UnpauseSystem(tx *ledger.Tx, systemKey, signer solana.PublicKey) error {
	sys, err := state.LoadSystem(tx, systemKey)
	if err != nil {
		return err
	}
	if !sys.IsAdmin(signer) {
		return errors.ErrUnauthorized
	}
	if !sys.IsPaused {
		return errors.ErrSystemNotPaused
	}

	sys.Unpause()
	if err := state.StoreSystem(tx, systemKey, sys); err != nil {
		return err
	}

	m.log.Info("system unpaused")
	return nil
}
