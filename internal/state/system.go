// Package state contains the persisted record types for the fixed-ratio
// trading core: the system-wide singleton, per-pool state, and the main
// treasury. Records are fixed-width and Borsh-serialized; all behavior
// that mutates them lives in the engine packages.
package state

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SystemState is the system-wide singleton controlling the admin authority
// and the global pause switch. It is created once by InitializeProgram and
// never destroyed.
type SystemState struct {
	// AdminAuthority controls privileged operations (pause, treasury
	// withdrawals, owner-only swap delegation).
	AdminAuthority solana.PublicKey

	// PendingAdminAuthority is the proposed replacement authority. The
	// zero key means no change is pending.
	PendingAdminAuthority solana.PublicKey

	// AdminChangeTimestamp is the unix time the pending change was
	// proposed; zero when no change is pending.
	AdminChangeTimestamp int64

	// IsPaused blocks all user operations when set.
	IsPaused bool

	// PauseTimestamp is the unix time the system was paused.
	PauseTimestamp int64

	// PauseReasonCode is a standardized code; clients map it to text.
	PauseReasonCode uint8
}

// SystemStateLen is the serialized size of SystemState.
const SystemStateLen = 32 + 32 + 8 + 1 + 8 + 1

// NewSystemState creates an unpaused SystemState with the given authority.
func NewSystemState(authority solana.PublicKey) *SystemState {
	return &SystemState{AdminAuthority: authority}
}

// IsAdmin reports whether key is the current admin authority.
func (s *SystemState) IsAdmin(key solana.PublicKey) bool {
	return s.AdminAuthority.Equals(key)
}

// HasPendingChange reports whether an authority change is awaiting its timelock.
func (s *SystemState) HasPendingChange() bool {
	return !s.PendingAdminAuthority.IsZero()
}

// ClearPendingChange drops any pending authority change.
func (s *SystemState) ClearPendingChange() {
	s.PendingAdminAuthority = solana.PublicKey{}
	s.AdminChangeTimestamp = 0
}

// Pause sets the global pause with a reason code and timestamp.
func (s *SystemState) Pause(reasonCode uint8, now int64) {
	s.IsPaused = true
	s.PauseTimestamp = now
	s.PauseReasonCode = reasonCode
}

// Unpause clears the global pause state.
func (s *SystemState) Unpause() {
	s.IsPaused = false
	s.PauseTimestamp = 0
	s.PauseReasonCode = 0
}

// Marshal serializes the record with Borsh.
func (s *SystemState) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSystemState deserializes a SystemState record.
func DecodeSystemState(data []byte) (*SystemState, error) {
	s := new(SystemState)
	if err := bin.NewBorshDecoder(data).Decode(s); err != nil {
		return nil, err
	}
	return s, nil
}
