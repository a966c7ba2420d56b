package program

import "encoding/binary"

// EncodeInstruction produces the wire bytes for an instruction:
// one discriminator byte followed by the fixed little-endian payload.
// It is the inverse of DecodeInstruction.
func EncodeInstruction(inst Instruction) []byte {
	out := []byte{byte(inst.Discriminator())}

	u64 := func(v uint64) []byte {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		return b[:]
	}

	switch in := inst.(type) {
	case InitializePool:
		out = append(out, u64(in.RatioANumerator)...)
		out = append(out, u64(in.RatioBDenominator)...)
	case Deposit:
		out = append(out, in.DepositTokenMint.Bytes()...)
		out = append(out, u64(in.Amount)...)
	case Withdraw:
		out = append(out, in.WithdrawTokenMint.Bytes()...)
		out = append(out, u64(in.LpAmountToBurn)...)
	case Swap:
		out = append(out, in.InputTokenMint.Bytes()...)
		out = append(out, u64(in.AmountIn)...)
	case PauseSystem:
		out = append(out, in.ReasonCode)
	case WithdrawTreasuryFees:
		out = append(out, u64(in.Amount)...)
	case ConsolidatePoolFees:
		out = append(out, in.PoolCount)
	case PausePool:
		out = append(out, in.PauseFlags)
	case UnpausePool:
		out = append(out, in.UnpauseFlags)
	case SetSwapOwnerOnly:
		var enable byte
		if in.EnableRestriction {
			enable = 1
		}
		out = append(out, enable)
		out = append(out, in.DesignatedOwner.Bytes()...)
	case DonateSol:
		out = append(out, u64(in.Amount)...)
	case InitiateAdminChange:
		out = append(out, in.NewAdmin.Bytes()...)
	}
	return out
}
