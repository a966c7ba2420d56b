package program

import (
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/davincilabs/fixedratio/internal/authority"
	"github.com/davincilabs/fixedratio/internal/config"
	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/liquidity"
	"github.com/davincilabs/fixedratio/internal/metrics"
	"github.com/davincilabs/fixedratio/internal/pda"
	"github.com/davincilabs/fixedratio/internal/registry"
	"github.com/davincilabs/fixedratio/internal/state"
	"github.com/davincilabs/fixedratio/internal/swapengine"
	"github.com/davincilabs/fixedratio/internal/treasury"
	"github.com/davincilabs/fixedratio/pkg/version"
)

// Engine executes instructions against a ledger. One Engine serves one
// program id; callers must serialize Execute calls, matching the
// single-writer execution model of the runtime.
type Engine struct {
	cfg     *config.Config
	ledger  *ledger.Ledger
	deriver *pda.Deriver

	// Singleton PDAs, derived once at construction.
	systemKey   solana.PublicKey
	treasuryKey solana.PublicKey

	authority *authority.Manager
	registry  *registry.Registry
	liquidity *liquidity.Engine
	swaps     *swapengine.Engine
	treasury  *treasury.Accountant

	log     *slog.Logger
	metrics metrics.Recorder
}

// SetMetrics routes execution statistics to rec. The default recorder
// discards everything.
func (e *Engine) SetMetrics(rec metrics.Recorder) {
	if rec == nil {
		rec = metrics.Noop{}
	}
	e.metrics = rec
}

// New builds an Engine from configuration. The program id must be a
// valid Base58 key; both singleton PDAs are derived eagerly so a bad
// program id fails here rather than on the first instruction.
func New(cfg *config.Config, l *ledger.Ledger, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	programID, err := solana.PublicKeyFromBase58(cfg.Program.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse program id")
	}
	deriver := pda.NewDeriver(programID)

	systemKey, _, err := deriver.SystemState()
	if err != nil {
		return nil, errors.Wrap(err, "derive system state address")
	}
	treasuryKey, _, err := deriver.MainTreasury()
	if err != nil {
		return nil, errors.Wrap(err, "derive treasury address")
	}

	return &Engine{
		cfg:         cfg,
		ledger:      l,
		deriver:     deriver,
		systemKey:   systemKey,
		treasuryKey: treasuryKey,
		authority:   authority.NewManager(programID, cfg.Timing.AdminChangeTimelock, log),
		registry:    registry.NewRegistry(deriver, cfg.Fees.Registration, log),
		liquidity:   liquidity.NewEngine(cfg.Fees.Liquidity, log),
		swaps:       swapengine.NewEngine(cfg.Fees.Swap, log),
		treasury:    treasury.NewAccountant(cfg.Timing.WithdrawalCooldown, log),
		log:         log,
		metrics:     metrics.Noop{},
	}, nil
}

// ProgramID returns the program id the engine executes for.
func (e *Engine) ProgramID() solana.PublicKey {
	return e.deriver.ProgramID()
}

// SystemStateKey returns the system-state singleton address.
func (e *Engine) SystemStateKey() solana.PublicKey {
	return e.systemKey
}

// TreasuryKey returns the main treasury address.
func (e *Engine) TreasuryKey() solana.PublicKey {
	return e.treasuryKey
}

// Execute decodes and runs one instruction at logical time now. State
// changes become visible only if the whole instruction succeeds; on any
// error the staged transaction is discarded.
func (e *Engine) Execute(data []byte, metas []*solana.AccountMeta, now int64) error {
	inst, err := DecodeInstruction(data)
	if err != nil {
		e.log.Error("instruction decode failed", "error", err, "data_len", len(data))
		return err
	}

	log := e.log.With(
		"instruction", inst.Name(),
		"execution_id", uuid.NewString(),
	)

	start := time.Now()
	e.metrics.IncrementCounter(metrics.MetricInstructionsExecuted, 1)
	e.metrics.IncrementCounter(metrics.MetricInstructionPrefix+inst.Name(), 1)

	tx := e.ledger.Begin()
	if err := e.dispatch(tx, inst, metas, now, log); err != nil {
		e.metrics.IncrementCounter(metrics.MetricInstructionsFailed, 1)
		log.Error("instruction rejected", "error", err)
		return err
	}
	tx.Commit()
	e.metrics.RecordDuration(metrics.MetricInstructionDuration, time.Since(start))

	log.Debug("instruction committed")
	return nil
}

func (e *Engine) dispatch(tx *ledger.Tx, inst Instruction, metas []*solana.AccountMeta, now int64, log *slog.Logger) error {
	switch in := inst.(type) {
	case InitializeProgram:
		return e.execInitializeProgram(tx, metas, now)
	case InitializePool:
		return e.execInitializePool(tx, in, metas, now)
	case Deposit:
		return e.execDeposit(tx, in, metas)
	case Withdraw:
		return e.execWithdraw(tx, in, metas)
	case Swap:
		return e.execSwap(tx, in, metas)
	case PauseSystem:
		return e.execPauseSystem(tx, in, metas, now)
	case UnpauseSystem:
		return e.execUnpauseSystem(tx, metas)
	case GetVersion:
		return e.execGetVersion(metas, log)
	case WithdrawTreasuryFees:
		return e.execWithdrawTreasuryFees(tx, in, metas, now)
	case GetTreasuryInfo:
		return e.execGetTreasuryInfo(tx, metas)
	case ConsolidatePoolFees:
		return e.execConsolidatePoolFees(tx, in, metas, now)
	case PausePool:
		return e.execPausePool(tx, in, metas)
	case UnpausePool:
		return e.execUnpausePool(tx, in, metas)
	case SetSwapOwnerOnly:
		return e.execSetSwapOwnerOnly(tx, in, metas)
	case DonateSol:
		return e.execDonateSol(tx, in, metas, now)
	case InitiateAdminChange:
		return e.execInitiateAdminChange(tx, in, metas, now)
	case FinalizeAdminChange:
		return e.execFinalizeAdminChange(tx, metas, now)
	case CancelAdminChange:
		return e.execCancelAdminChange(tx, metas)
	default:
		return errors.ErrInvalidInstructionData
	}
}

// Account layout: [admin (s,w), system program, system state (w),
// main treasury (w), rent sysvar].
func (e *Engine) execInitializeProgram(tx *ledger.Tx, metas []*solana.AccountMeta, now int64) error {
	if err := requireCount(metas, 5); err != nil {
		return err
	}
	if err := requireSigner(metas[0]); err != nil {
		return err
	}
	if err := requireWritable(metas[0]); err != nil {
		return err
	}
	if err := requireKey(metas[1], solana.SystemProgramID, "system_program"); err != nil {
		return err
	}
	if err := requireKey(metas[2], e.systemKey, "system_state"); err != nil {
		return err
	}
	if err := requireWritable(metas[2]); err != nil {
		return err
	}
	if err := requireKey(metas[3], e.treasuryKey, "main_treasury"); err != nil {
		return err
	}
	if err := requireWritable(metas[3]); err != nil {
		return err
	}
	if err := requireKey(metas[4], solana.SysVarRentPubkey, "rent_sysvar"); err != nil {
		return err
	}

	return e.authority.InitializeProgram(tx, e.systemKey, e.treasuryKey, metas[0].PublicKey, now)
}

// Account layout: [payer (s,w), system program, system state, pool
// state (w), token program, main treasury (w), rent sysvar, mint X,
// mint Y, vault A (w), vault B (w), LP mint A (w), LP mint B (w)].
// Mint X and Y are in caller order; the registry canonicalizes.
func (e *Engine) execInitializePool(tx *ledger.Tx, in InitializePool, metas []*solana.AccountMeta, now int64) error {
	if err := requireCount(metas, 13); err != nil {
		return err
	}
	if err := requireSigner(metas[0]); err != nil {
		return err
	}
	if err := requireWritable(metas[0]); err != nil {
		return err
	}
	if err := requireKey(metas[1], solana.SystemProgramID, "system_program"); err != nil {
		return err
	}
	if err := requireKey(metas[2], e.systemKey, "system_state"); err != nil {
		return err
	}
	if err := requireWritable(metas[3]); err != nil {
		return err
	}
	if err := requireKey(metas[4], solana.TokenProgramID, "token_program"); err != nil {
		return err
	}
	if err := requireKey(metas[5], e.treasuryKey, "main_treasury"); err != nil {
		return err
	}
	if err := requireWritable(metas[5]); err != nil {
		return err
	}
	if err := requireKey(metas[6], solana.SysVarRentPubkey, "rent_sysvar"); err != nil {
		return err
	}
	for _, i := range []int{9, 10, 11, 12} {
		if err := requireWritable(metas[i]); err != nil {
			return err
		}
	}

	return e.registry.CreatePool(tx, registry.CreatePoolParams{
		Payer:             metas[0].PublicKey,
		SystemState:       e.systemKey,
		PoolState:         metas[3].PublicKey,
		Treasury:          e.treasuryKey,
		MintX:             metas[7].PublicKey,
		MintY:             metas[8].PublicKey,
		VaultA:            metas[9].PublicKey,
		VaultB:            metas[10].PublicKey,
		LpMintA:           metas[11].PublicKey,
		LpMintB:           metas[12].PublicKey,
		RatioXNumerator:   in.RatioANumerator,
		RatioYDenominator: in.RatioBDenominator,
	}, now)
}

// liquiditySide resolves the vault and LP mint for the pool side that
// mint belongs to, and checks the supplied accounts match the record.
func liquiditySide(pool *state.PoolState, mint solana.PublicKey, vaultMeta, lpMeta *solana.AccountMeta) error {
	var vault, lpMint solana.PublicKey
	switch mint {
	case pool.TokenAMint:
		vault, lpMint = pool.TokenAVault, pool.LpTokenAMint
	case pool.TokenBMint:
		vault, lpMint = pool.TokenBVault, pool.LpTokenBMint
	default:
		return errors.ErrInvalidMint
	}
	if err := requireKey(vaultMeta, vault, "token_vault"); err != nil {
		return err
	}
	return requireKey(lpMeta, lpMint, "lp_mint")
}

// Account layout for Deposit and Withdraw: [user (s,w), system state,
// pool state (w), token mint, user token (w), vault (w), LP mint (w),
// user LP (w), token program].
func (e *Engine) liquidityAccounts(tx *ledger.Tx, mint solana.PublicKey, metas []*solana.AccountMeta) (liquidity.Accounts, error) {
	var acc liquidity.Accounts
	if err := requireCount(metas, 9); err != nil {
		return acc, err
	}
	if err := requireSigner(metas[0]); err != nil {
		return acc, err
	}
	if err := requireWritable(metas[0]); err != nil {
		return acc, err
	}
	if err := requireKey(metas[1], e.systemKey, "system_state"); err != nil {
		return acc, err
	}
	if err := requireWritable(metas[2]); err != nil {
		return acc, err
	}
	if err := requireKey(metas[3], mint, "token_mint"); err != nil {
		return acc, err
	}
	for _, i := range []int{4, 5, 6, 7} {
		if err := requireWritable(metas[i]); err != nil {
			return acc, err
		}
	}
	if err := requireKey(metas[8], solana.TokenProgramID, "token_program"); err != nil {
		return acc, err
	}

	pool, err := e.loadCheckedPool(tx, metas[2].PublicKey)
	if err != nil {
		return acc, err
	}
	if err := liquiditySide(pool, mint, metas[5], metas[6]); err != nil {
		return acc, err
	}

	return liquidity.Accounts{
		User:        metas[0].PublicKey,
		SystemState: e.systemKey,
		PoolState:   metas[2].PublicKey,
		UserToken:   metas[4].PublicKey,
		UserLp:      metas[7].PublicKey,
	}, nil
}

func (e *Engine) execDeposit(tx *ledger.Tx, in Deposit, metas []*solana.AccountMeta) error {
	acc, err := e.liquidityAccounts(tx, in.DepositTokenMint, metas)
	if err != nil {
		return err
	}
	return e.liquidity.Deposit(tx, acc, in.DepositTokenMint, in.Amount)
}

func (e *Engine) execWithdraw(tx *ledger.Tx, in Withdraw, metas []*solana.AccountMeta) error {
	acc, err := e.liquidityAccounts(tx, in.WithdrawTokenMint, metas)
	if err != nil {
		return err
	}
	return e.liquidity.Withdraw(tx, acc, in.WithdrawTokenMint, in.LpAmountToBurn)
}

// Account layout: [user (s,w), system state, pool state (w), input
// mint, user input (w), input vault (w), output vault (w), user output
// (w), token program].
func (e *Engine) execSwap(tx *ledger.Tx, in Swap, metas []*solana.AccountMeta) error {
	if err := requireCount(metas, 9); err != nil {
		return err
	}
	if err := requireSigner(metas[0]); err != nil {
		return err
	}
	if err := requireWritable(metas[0]); err != nil {
		return err
	}
	if err := requireKey(metas[1], e.systemKey, "system_state"); err != nil {
		return err
	}
	if err := requireWritable(metas[2]); err != nil {
		return err
	}
	if err := requireKey(metas[3], in.InputTokenMint, "input_mint"); err != nil {
		return err
	}
	for _, i := range []int{4, 5, 6, 7} {
		if err := requireWritable(metas[i]); err != nil {
			return err
		}
	}
	if err := requireKey(metas[8], solana.TokenProgramID, "token_program"); err != nil {
		return err
	}

	pool, err := e.loadCheckedPool(tx, metas[2].PublicKey)
	if err != nil {
		return err
	}
	var inVault, outVault solana.PublicKey
	switch in.InputTokenMint {
	case pool.TokenAMint:
		inVault, outVault = pool.TokenAVault, pool.TokenBVault
	case pool.TokenBMint:
		inVault, outVault = pool.TokenBVault, pool.TokenAVault
	default:
		return errors.ErrInvalidMint
	}
	if err := requireKey(metas[5], inVault, "input_vault"); err != nil {
		return err
	}
	if err := requireKey(metas[6], outVault, "output_vault"); err != nil {
		return err
	}

	return e.swaps.Swap(tx, swapengine.Accounts{
		User:        metas[0].PublicKey,
		SystemState: e.systemKey,
		PoolState:   metas[2].PublicKey,
		UserIn:      metas[4].PublicKey,
		UserOut:     metas[7].PublicKey,
	}, in.InputTokenMint, in.AmountIn)
}

// systemStateAccounts validates the [signer, system state (w)] pair
// shared by the system pause and admin change instructions.
func (e *Engine) systemStateAccounts(metas []*solana.AccountMeta) (signer solana.PublicKey, err error) {
	if err := requireCount(metas, 2); err != nil {
		return solana.PublicKey{}, err
	}
	if err := requireSigner(metas[0]); err != nil {
		return solana.PublicKey{}, err
	}
	if err := requireKey(metas[1], e.systemKey, "system_state"); err != nil {
		return solana.PublicKey{}, err
	}
	if err := requireWritable(metas[1]); err != nil {
		return solana.PublicKey{}, err
	}
	return metas[0].PublicKey, nil
}

func (e *Engine) execPauseSystem(tx *ledger.Tx, in PauseSystem, metas []*solana.AccountMeta, now int64) error {
	signer, err := e.systemStateAccounts(metas)
	if err != nil {
		return err
	}
	return e.authority.PauseSystem(tx, e.systemKey, signer, in.ReasonCode, now)
}

func (e *Engine) execUnpauseSystem(tx *ledger.Tx, metas []*solana.AccountMeta) error {
	signer, err := e.systemStateAccounts(metas)
	if err != nil {
		return err
	}
	return e.authority.UnpauseSystem(tx, e.systemKey, signer)
}

// GetVersion touches no accounts and no state.
func (e *Engine) execGetVersion(metas []*solana.AccountMeta, log *slog.Logger) error {
	if err := requireCount(metas, 0); err != nil {
		return err
	}
	log.Info("contract version",
		"contract_version", version.ContractVersion,
		"schema_version", version.SchemaVersion)
	return nil
}

// Account layout: [admin (s), system state, main treasury (w),
// recipient (w)].
func (e *Engine) execWithdrawTreasuryFees(tx *ledger.Tx, in WithdrawTreasuryFees, metas []*solana.AccountMeta, now int64) error {
	if err := requireCount(metas, 4); err != nil {
		return err
	}
	if err := requireSigner(metas[0]); err != nil {
		return err
	}
	if err := requireKey(metas[1], e.systemKey, "system_state"); err != nil {
		return err
	}
	if err := requireKey(metas[2], e.treasuryKey, "main_treasury"); err != nil {
		return err
	}
	if err := requireWritable(metas[2]); err != nil {
		return err
	}
	if err := requireWritable(metas[3]); err != nil {
		return err
	}

	return e.treasury.Withdraw(tx, e.systemKey, e.treasuryKey, metas[0].PublicKey, metas[3].PublicKey, in.Amount, now)
}

// Account layout: [main treasury].
func (e *Engine) execGetTreasuryInfo(tx *ledger.Tx, metas []*solana.AccountMeta) error {
	if err := requireCount(metas, 1); err != nil {
		return err
	}
	if err := requireKey(metas[0], e.treasuryKey, "main_treasury"); err != nil {
		return err
	}
	return e.treasury.LogInfo(tx, e.treasuryKey)
}

// Account layout: [system state, main treasury (w), pool state (w)...].
// The pool count in the payload must match the trailing accounts.
func (e *Engine) execConsolidatePoolFees(tx *ledger.Tx, in ConsolidatePoolFees, metas []*solana.AccountMeta, now int64) error {
	if err := requireCount(metas, 2+int(in.PoolCount)); err != nil {
		return err
	}
	if err := requireKey(metas[0], e.systemKey, "system_state"); err != nil {
		return err
	}
	if err := requireKey(metas[1], e.treasuryKey, "main_treasury"); err != nil {
		return err
	}
	if err := requireWritable(metas[1]); err != nil {
		return err
	}

	poolKeys := make([]solana.PublicKey, 0, in.PoolCount)
	for _, m := range metas[2:] {
		if err := requireWritable(m); err != nil {
			return err
		}
		if _, err := e.loadCheckedPool(tx, m.PublicKey); err != nil {
			return err
		}
		poolKeys = append(poolKeys, m.PublicKey)
	}

	return e.treasury.Consolidate(tx, e.systemKey, e.treasuryKey, poolKeys, now)
}

// poolControlAccounts validates the [signer, system state, pool state
// (w)] triple shared by the pool pause and owner-only instructions.
func (e *Engine) poolControlAccounts(tx *ledger.Tx, metas []*solana.AccountMeta) (signer, poolKey solana.PublicKey, err error) {
	if err := requireCount(metas, 3); err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	if err := requireSigner(metas[0]); err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	if err := requireKey(metas[1], e.systemKey, "system_state"); err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	if err := requireWritable(metas[2]); err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	if _, err := e.loadCheckedPool(tx, metas[2].PublicKey); err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return metas[0].PublicKey, metas[2].PublicKey, nil
}

func (e *Engine) execPausePool(tx *ledger.Tx, in PausePool, metas []*solana.AccountMeta) error {
	signer, poolKey, err := e.poolControlAccounts(tx, metas)
	if err != nil {
		return err
	}
	return e.registry.PausePool(tx, e.systemKey, poolKey, signer, in.PauseFlags)
}

func (e *Engine) execUnpausePool(tx *ledger.Tx, in UnpausePool, metas []*solana.AccountMeta) error {
	signer, poolKey, err := e.poolControlAccounts(tx, metas)
	if err != nil {
		return err
	}
	return e.registry.UnpausePool(tx, e.systemKey, poolKey, signer, in.UnpauseFlags)
}

func (e *Engine) execSetSwapOwnerOnly(tx *ledger.Tx, in SetSwapOwnerOnly, metas []*solana.AccountMeta) error {
	signer, poolKey, err := e.poolControlAccounts(tx, metas)
	if err != nil {
		return err
	}
	return e.registry.SetSwapOwnerOnly(tx, e.systemKey, poolKey, signer, in.EnableRestriction, in.DesignatedOwner)
}

// Account layout: [donor (s,w), main treasury (w)].
func (e *Engine) execDonateSol(tx *ledger.Tx, in DonateSol, metas []*solana.AccountMeta, now int64) error {
	if err := requireCount(metas, 2); err != nil {
		return err
	}
	if err := requireSigner(metas[0]); err != nil {
		return err
	}
	if err := requireWritable(metas[0]); err != nil {
		return err
	}
	if err := requireKey(metas[1], e.treasuryKey, "main_treasury"); err != nil {
		return err
	}
	if err := requireWritable(metas[1]); err != nil {
		return err
	}
	return e.treasury.Donate(tx, e.treasuryKey, metas[0].PublicKey, in.Amount, now)
}

func (e *Engine) execInitiateAdminChange(tx *ledger.Tx, in InitiateAdminChange, metas []*solana.AccountMeta, now int64) error {
	signer, err := e.systemStateAccounts(metas)
	if err != nil {
		return err
	}
	return e.authority.ProposeChange(tx, e.systemKey, signer, in.NewAdmin, now)
}

// Account layout: [system state (w)]. No signer: finalization is
// permissionless once the timelock has elapsed.
func (e *Engine) execFinalizeAdminChange(tx *ledger.Tx, metas []*solana.AccountMeta, now int64) error {
	if err := requireCount(metas, 1); err != nil {
		return err
	}
	if err := requireKey(metas[0], e.systemKey, "system_state"); err != nil {
		return err
	}
	if err := requireWritable(metas[0]); err != nil {
		return err
	}
	return e.authority.FinalizeChange(tx, e.systemKey, now)
}

func (e *Engine) execCancelAdminChange(tx *ledger.Tx, metas []*solana.AccountMeta) error {
	signer, err := e.systemStateAccounts(metas)
	if err != nil {
		return err
	}
	return e.authority.CancelChange(tx, e.systemKey, signer)
}
