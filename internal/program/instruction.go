// Package program is the instruction dispatcher: it decodes the wire
// format, resolves and validates every referenced account, invokes the
// matching engine, and commits the resulting state atomically. Any
// validation failure short-circuits before state is touched; a failing
// instruction leaves no partial effects.
package program

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
)

// Discriminator selects the instruction variant. Values are stable wire
// format; gaps belong to retired instructions.
type Discriminator uint8

const (
	DiscInitializeProgram     Discriminator = 0
	DiscInitializePool        Discriminator = 1
	DiscDeposit               Discriminator = 2
	DiscWithdraw              Discriminator = 3
	DiscSwap                  Discriminator = 4
	DiscPauseSystem           Discriminator = 12
	DiscUnpauseSystem         Discriminator = 13
	DiscGetVersion            Discriminator = 14
	DiscWithdrawTreasuryFees  Discriminator = 15
	DiscGetTreasuryInfo       Discriminator = 16
	DiscConsolidatePoolFees   Discriminator = 17
	DiscPausePool             Discriminator = 19
	DiscUnpausePool           Discriminator = 20
	DiscSetSwapOwnerOnly      Discriminator = 21
	DiscDonateSol             Discriminator = 22
	DiscInitiateAdminChange   Discriminator = 23
	DiscFinalizeAdminChange   Discriminator = 24
	DiscCancelAdminChange     Discriminator = 25
)

// Instruction is the closed variant set over the program's operations.
// Decoding happens once; the dispatcher switches exhaustively on the
// concrete type.
type Instruction interface {
	Discriminator() Discriminator
	Name() string
}

type InitializeProgram struct{}

func (InitializeProgram) Discriminator() Discriminator { return DiscInitializeProgram }
func (InitializeProgram) Name() string                 { return "InitializeProgram" }

type InitializePool struct {
	RatioANumerator   uint64
	RatioBDenominator uint64
}

func (InitializePool) Discriminator() Discriminator { return DiscInitializePool }
func (InitializePool) Name() string                 { return "InitializePool" }

type Deposit struct {
	DepositTokenMint solana.PublicKey
	Amount           uint64
}

func (Deposit) Discriminator() Discriminator { return DiscDeposit }
func (Deposit) Name() string                 { return "Deposit" }

type Withdraw struct {
	WithdrawTokenMint solana.PublicKey
	LpAmountToBurn    uint64
}

func (Withdraw) Discriminator() Discriminator { return DiscWithdraw }
func (Withdraw) Name() string                 { return "Withdraw" }

type Swap struct {
	InputTokenMint solana.PublicKey
	AmountIn       uint64
}

func (Swap) Discriminator() Discriminator { return DiscSwap }
func (Swap) Name() string                 { return "Swap" }

type PauseSystem struct {
	ReasonCode uint8
}

func (PauseSystem) Discriminator() Discriminator { return DiscPauseSystem }
func (PauseSystem) Name() string                 { return "PauseSystem" }

type UnpauseSystem struct{}

func (UnpauseSystem) Discriminator() Discriminator { return DiscUnpauseSystem }
func (UnpauseSystem) Name() string                 { return "UnpauseSystem" }

type GetVersion struct{}

func (GetVersion) Discriminator() Discriminator { return DiscGetVersion }
func (GetVersion) Name() string                 { return "GetVersion" }

type WithdrawTreasuryFees struct {
	// Amount in lamports; zero withdraws the full available balance.
	Amount uint64
}

func (WithdrawTreasuryFees) Discriminator() Discriminator { return DiscWithdrawTreasuryFees }
func (WithdrawTreasuryFees) Name() string                 { return "WithdrawTreasuryFees" }

type GetTreasuryInfo struct{}

func (GetTreasuryInfo) Discriminator() Discriminator { return DiscGetTreasuryInfo }
func (GetTreasuryInfo) Name() string                 { return "GetTreasuryInfo" }

type ConsolidatePoolFees struct {
	PoolCount uint8
}

func (ConsolidatePoolFees) Discriminator() Discriminator { return DiscConsolidatePoolFees }
func (ConsolidatePoolFees) Name() string                 { return "ConsolidatePoolFees" }

type PausePool struct {
	PauseFlags uint8
}

func (PausePool) Discriminator() Discriminator { return DiscPausePool }
func (PausePool) Name() string                 { return "PausePool" }

type UnpausePool struct {
	UnpauseFlags uint8
}

func (UnpausePool) Discriminator() Discriminator { return DiscUnpausePool }
func (UnpausePool) Name() string                 { return "UnpausePool" }

type SetSwapOwnerOnly struct {
	EnableRestriction bool
	DesignatedOwner   solana.PublicKey
}

func (SetSwapOwnerOnly) Discriminator() Discriminator { return DiscSetSwapOwnerOnly }
func (SetSwapOwnerOnly) Name() string                 { return "SetSwapOwnerOnly" }

type DonateSol struct {
	Amount uint64
}

func (DonateSol) Discriminator() Discriminator { return DiscDonateSol }
func (DonateSol) Name() string                 { return "DonateSol" }

type InitiateAdminChange struct {
	NewAdmin solana.PublicKey
}

func (InitiateAdminChange) Discriminator() Discriminator { return DiscInitiateAdminChange }
func (InitiateAdminChange) Name() string                 { return "InitiateAdminChange" }

type FinalizeAdminChange struct{}

func (FinalizeAdminChange) Discriminator() Discriminator { return DiscFinalizeAdminChange }
func (FinalizeAdminChange) Name() string                 { return "FinalizeAdminChange" }

type CancelAdminChange struct{}

func (CancelAdminChange) Discriminator() Discriminator { return DiscCancelAdminChange }
func (CancelAdminChange) Name() string                 { return "CancelAdminChange" }

// DecodeInstruction parses one discriminator byte plus a fixed-length
// little-endian payload. Unknown discriminators and wrong payload
// lengths fail before any account is resolved.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) < 1 {
		return nil, errors.ErrInvalidInstructionData
	}
	disc, payload := Discriminator(data[0]), data[1:]

	fixed := func(n int) bool { return len(payload) == n }

	switch disc {
	case DiscInitializeProgram:
		if !fixed(0) {
			return nil, errors.ErrInvalidInstructionData
		}
		return InitializeProgram{}, nil

	case DiscInitializePool:
		if !fixed(16) {
			return nil, errors.ErrInvalidInstructionData
		}
		return InitializePool{
			RatioANumerator:   binary.LittleEndian.Uint64(payload[0:8]),
			RatioBDenominator: binary.LittleEndian.Uint64(payload[8:16]),
		}, nil

	case DiscDeposit:
		if !fixed(40) {
			return nil, errors.ErrInvalidInstructionData
		}
		return Deposit{
			DepositTokenMint: solana.PublicKeyFromBytes(payload[0:32]),
			Amount:           binary.LittleEndian.Uint64(payload[32:40]),
		}, nil

	case DiscWithdraw:
		if !fixed(40) {
			return nil, errors.ErrInvalidInstructionData
		}
		return Withdraw{
			WithdrawTokenMint: solana.PublicKeyFromBytes(payload[0:32]),
			LpAmountToBurn:    binary.LittleEndian.Uint64(payload[32:40]),
		}, nil

	case DiscSwap:
		if !fixed(40) {
			return nil, errors.ErrInvalidInstructionData
		}
		return Swap{
			InputTokenMint: solana.PublicKeyFromBytes(payload[0:32]),
			AmountIn:       binary.LittleEndian.Uint64(payload[32:40]),
		}, nil

	case DiscPauseSystem:
		if !fixed(1) {
			return nil, errors.ErrInvalidInstructionData
		}
		return PauseSystem{ReasonCode: payload[0]}, nil

	case DiscUnpauseSystem:
		if !fixed(0) {
			return nil, errors.ErrInvalidInstructionData
		}
		return UnpauseSystem{}, nil

	case DiscGetVersion:
		if !fixed(0) {
			return nil, errors.ErrInvalidInstructionData
		}
		return GetVersion{}, nil

	case DiscWithdrawTreasuryFees:
		if !fixed(8) {
			return nil, errors.ErrInvalidInstructionData
		}
		return WithdrawTreasuryFees{Amount: binary.LittleEndian.Uint64(payload)}, nil

	case DiscGetTreasuryInfo:
		if !fixed(0) {
			return nil, errors.ErrInvalidInstructionData
		}
		return GetTreasuryInfo{}, nil

	case DiscConsolidatePoolFees:
		if !fixed(1) {
			return nil, errors.ErrInvalidInstructionData
		}
		return ConsolidatePoolFees{PoolCount: payload[0]}, nil

	case DiscPausePool:
		if !fixed(1) {
			return nil, errors.ErrInvalidInstructionData
		}
		return PausePool{PauseFlags: payload[0]}, nil

	case DiscUnpausePool:
		if !fixed(1) {
			return nil, errors.ErrInvalidInstructionData
		}
		return UnpausePool{UnpauseFlags: payload[0]}, nil

	case DiscSetSwapOwnerOnly:
		if !fixed(33) {
			return nil, errors.ErrInvalidInstructionData
		}
		if payload[0] > 1 {
			return nil, errors.ErrInvalidInstructionData
		}
		return SetSwapOwnerOnly{
			EnableRestriction: payload[0] == 1,
			DesignatedOwner:   solana.PublicKeyFromBytes(payload[1:33]),
		}, nil

	case DiscDonateSol:
		if !fixed(8) {
			return nil, errors.ErrInvalidInstructionData
		}
		return DonateSol{Amount: binary.LittleEndian.Uint64(payload)}, nil

	case DiscInitiateAdminChange:
		if !fixed(32) {
			return nil, errors.ErrInvalidInstructionData
		}
		return InitiateAdminChange{NewAdmin: solana.PublicKeyFromBytes(payload)}, nil

	case DiscFinalizeAdminChange:
		if !fixed(0) {
			return nil, errors.ErrInvalidInstructionData
		}
		return FinalizeAdminChange{}, nil

	case DiscCancelAdminChange:
		if !fixed(0) {
			return nil, errors.ErrInvalidInstructionData
		}
		return CancelAdminChange{}, nil

	default:
		return nil, errors.ErrInvalidInstructionData
	}
}
