package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/metrics"
	"github.com/davincilabs/fixedratio/internal/program"
	"github.com/davincilabs/fixedratio/internal/state"
)

var replayMetrics bool

// scenario is a replayable instruction sequence. Wallets, mints, and
// token accounts are referenced by name; keys are generated when the
// scenario is loaded.
type scenario struct {
	// StartTime is the unix timestamp of the first step.
	StartTime int64 `yaml:"start_time"`

	Wallets []walletSpec `yaml:"wallets"`
	Mints   []mintSpec   `yaml:"mints"`
	Tokens  []tokenSpec  `yaml:"tokens"`

	Steps []replayStep `yaml:"steps"`
}

type walletSpec struct {
	Name     string `yaml:"name"`
	Lamports uint64 `yaml:"lamports"`
}

type mintSpec struct {
	Name     string `yaml:"name"`
	Decimals uint8  `yaml:"decimals"`
}

type tokenSpec struct {
	Name   string `yaml:"name"`
	Mint   string `yaml:"mint"`
	Owner  string `yaml:"owner"`
	Amount uint64 `yaml:"amount"`
}

// replayStep is one scenario step. Which fields apply depends on Op.
type replayStep struct {
	Op string `yaml:"op"`

	// At is the step time as an offset in seconds from StartTime.
	At int64 `yaml:"at"`

	// ExpectError names the error code the step must fail with. An
	// empty value means the step must succeed.
	ExpectError string `yaml:"expect_error"`

	Name      string   `yaml:"name"`
	Signer    string   `yaml:"signer"`
	Payer     string   `yaml:"payer"`
	Pool      string   `yaml:"pool"`
	Pools     []string `yaml:"pools"`
	User      string   `yaml:"user"`
	Owner     string   `yaml:"owner"`
	Recipient string   `yaml:"recipient"`

	Mint      string `yaml:"mint"`
	MintX     string `yaml:"mint_x"`
	MintY     string `yaml:"mint_y"`
	UserToken string `yaml:"user_token"`
	UserLp    string `yaml:"user_lp"`
	UserIn    string `yaml:"user_in"`
	UserOut   string `yaml:"user_out"`

	Amount uint64 `yaml:"amount"`
	RatioX uint64 `yaml:"ratio_x"`
	RatioY uint64 `yaml:"ratio_y"`

	Flags      uint8  `yaml:"flags"`
	Reason     uint8  `yaml:"reason"`
	Enable     bool   `yaml:"enable"`
	Designated string `yaml:"designated"`
	NewAdmin   string `yaml:"new_admin"`
}

var replayCmd = &cobra.Command{
	Use:   "replay [scenario.yaml]",
	Short: "Replay an instruction scenario",
	Long: `Replay a YAML instruction scenario against a fresh in-memory ledger.

Each step encodes one instruction, executes it at the step's logical
time, and checks the outcome against the step's expectation. The run
aborts on the first step whose outcome differs from what the scenario
declares.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read scenario: %w", err)
		}
		var sc scenario
		if err := yaml.Unmarshal(raw, &sc); err != nil {
			return fmt.Errorf("parse scenario: %w", err)
		}

		led := ledger.New()
		eng, err := program.New(cfg, led, log)
		if err != nil {
			return err
		}
		var rec *metrics.LogRecorder
		if replayMetrics {
			rec = metrics.NewLogRecorder(log)
			eng.SetMetrics(rec)
		}

		env := &replayEnv{
			eng:   eng,
			led:   led,
			keys:  make(map[string]solana.PublicKey),
			pools: make(map[string]solana.PublicKey),
		}
		if err := env.seed(&sc); err != nil {
			return err
		}

		for i, step := range sc.Steps {
			if err := env.runStep(&sc, step); err != nil {
				return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
			}
			fmt.Printf("step %d ok: %s\n", i+1, step.Op)
		}
		fmt.Printf("scenario complete: %d steps\n", len(sc.Steps))
		if rec != nil {
			rec.Flush()
		}
		return nil
	},
}

type replayEnv struct {
	eng   *program.Engine
	led   *ledger.Ledger
	keys  map[string]solana.PublicKey
	pools map[string]solana.PublicKey
}

func (env *replayEnv) seed(sc *scenario) error {
	for _, w := range sc.Wallets {
		key := solana.NewWallet().PublicKey()
		env.keys[w.Name] = key
		env.led.CreateFunded(key, w.Lamports)
	}
	for _, m := range sc.Mints {
		key := solana.NewWallet().PublicKey()
		env.keys[m.Name] = key
		env.led.CreateMint(key, solana.PublicKey{}, m.Decimals)
	}
	for _, t := range sc.Tokens {
		mint, err := env.key(t.Mint)
		if err != nil {
			return err
		}
		owner, err := env.key(t.Owner)
		if err != nil {
			return err
		}
		key := solana.NewWallet().PublicKey()
		env.keys[t.Name] = key
		env.led.CreateTokenAccount(key, mint, owner, t.Amount)
	}
	return nil
}

func (env *replayEnv) key(name string) (solana.PublicKey, error) {
	if k, ok := env.keys[name]; ok {
		return k, nil
	}
	return solana.PublicKey{}, fmt.Errorf("unknown account %q", name)
}

// mintRef resolves a mint reference. Plain names resolve through the
// key table; "pool.lp_a" and "pool.lp_b" resolve to a pool's LP mints.
func (env *replayEnv) mintRef(ref string) (solana.PublicKey, error) {
	poolName, side, ok := strings.Cut(ref, ".")
	if !ok {
		return env.key(ref)
	}
	pool, _, err := env.loadPool(poolName)
	if err != nil {
		return solana.PublicKey{}, err
	}
	switch side {
	case "lp_a":
		return pool.LpTokenAMint, nil
	case "lp_b":
		return pool.LpTokenBMint, nil
	default:
		return solana.PublicKey{}, fmt.Errorf("unknown mint reference %q", ref)
	}
}

func (env *replayEnv) loadPool(name string) (*state.PoolState, solana.PublicKey, error) {
	key, ok := env.pools[name]
	if !ok {
		return nil, solana.PublicKey{}, fmt.Errorf("unknown pool %q", name)
	}
	pool, err := state.LoadPool(env.led.Begin(), key)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return pool, key, nil
}

func (env *replayEnv) runStep(sc *scenario, step replayStep) error {
	now := sc.StartTime + step.At

	data, metas, err := env.buildStep(step)
	if err != nil {
		return err
	}
	if data == nil {
		// Host-level step with no instruction.
		return nil
	}

	execErr := env.eng.Execute(data, metas, now)
	if step.ExpectError == "" {
		return execErr
	}
	if execErr == nil {
		return fmt.Errorf("expected error %s, step succeeded", step.ExpectError)
	}
	var perr *errors.ProgramError
	if !errors.As(execErr, &perr) || perr.Code != step.ExpectError {
		return fmt.Errorf("expected error %s, got: %w", step.ExpectError, execErr)
	}
	return nil
}

func (env *replayEnv) buildStep(step replayStep) ([]byte, []*solana.AccountMeta, error) {
	switch step.Op {
	case "create_token":
		// Host-level account creation; needed for LP token accounts
		// whose mints only exist after pool creation.
		mint, err := env.mintRef(step.Mint)
		if err != nil {
			return nil, nil, err
		}
		owner, err := env.key(step.Owner)
		if err != nil {
			return nil, nil, err
		}
		key := solana.NewWallet().PublicKey()
		env.keys[step.Name] = key
		env.led.CreateTokenAccount(key, mint, owner, step.Amount)
		return nil, nil, nil

	case "initialize_program":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.InitializeProgram{}),
			env.eng.InitializeProgramAccounts(signer), nil

	case "initialize_pool":
		payer, err := env.key(step.Payer)
		if err != nil {
			return nil, nil, err
		}
		mintX, err := env.key(step.MintX)
		if err != nil {
			return nil, nil, err
		}
		mintY, err := env.key(step.MintY)
		if err != nil {
			return nil, nil, err
		}
		metas, err := env.eng.InitializePoolAccounts(payer, mintX, mintY)
		if err != nil {
			return nil, nil, err
		}
		if step.Name != "" {
			env.pools[step.Name] = metas[3].PublicKey
		}
		return program.EncodeInstruction(program.InitializePool{
			RatioANumerator:   step.RatioX,
			RatioBDenominator: step.RatioY,
		}), metas, nil

	case "deposit", "withdraw":
		pool, poolKey, err := env.loadPool(step.Pool)
		if err != nil {
			return nil, nil, err
		}
		user, err := env.key(step.User)
		if err != nil {
			return nil, nil, err
		}
		mint, err := env.mintRef(step.Mint)
		if err != nil {
			return nil, nil, err
		}
		userToken, err := env.key(step.UserToken)
		if err != nil {
			return nil, nil, err
		}
		userLp, err := env.key(step.UserLp)
		if err != nil {
			return nil, nil, err
		}
		metas := env.eng.LiquidityAccounts(pool, poolKey, user, mint, userToken, userLp)
		var inst program.Instruction
		if step.Op == "deposit" {
			inst = program.Deposit{DepositTokenMint: mint, Amount: step.Amount}
		} else {
			inst = program.Withdraw{WithdrawTokenMint: mint, LpAmountToBurn: step.Amount}
		}
		return program.EncodeInstruction(inst), metas, nil

	case "swap":
		pool, poolKey, err := env.loadPool(step.Pool)
		if err != nil {
			return nil, nil, err
		}
		user, err := env.key(step.User)
		if err != nil {
			return nil, nil, err
		}
		mint, err := env.mintRef(step.Mint)
		if err != nil {
			return nil, nil, err
		}
		userIn, err := env.key(step.UserIn)
		if err != nil {
			return nil, nil, err
		}
		userOut, err := env.key(step.UserOut)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.Swap{InputTokenMint: mint, AmountIn: step.Amount}),
			env.eng.SwapAccounts(pool, poolKey, user, mint, userIn, userOut), nil

	case "donate":
		donor, err := env.key(step.User)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.DonateSol{Amount: step.Amount}),
			env.eng.DonateAccounts(donor), nil

	case "pause_system":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.PauseSystem{ReasonCode: step.Reason}),
			env.eng.SystemControlAccounts(signer), nil

	case "unpause_system":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.UnpauseSystem{}),
			env.eng.SystemControlAccounts(signer), nil

	case "pause_pool", "unpause_pool":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		_, poolKey, err := env.loadPool(step.Pool)
		if err != nil {
			return nil, nil, err
		}
		var inst program.Instruction
		if step.Op == "pause_pool" {
			inst = program.PausePool{PauseFlags: step.Flags}
		} else {
			inst = program.UnpausePool{UnpauseFlags: step.Flags}
		}
		return program.EncodeInstruction(inst),
			env.eng.PoolControlAccounts(signer, poolKey), nil

	case "set_owner_only":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		_, poolKey, err := env.loadPool(step.Pool)
		if err != nil {
			return nil, nil, err
		}
		var designated solana.PublicKey
		if step.Designated != "" {
			if designated, err = env.key(step.Designated); err != nil {
				return nil, nil, err
			}
		}
		return program.EncodeInstruction(program.SetSwapOwnerOnly{
			EnableRestriction: step.Enable,
			DesignatedOwner:   designated,
		}), env.eng.PoolControlAccounts(signer, poolKey), nil

	case "consolidate":
		poolKeys := make([]solana.PublicKey, 0, len(step.Pools))
		for _, name := range step.Pools {
			_, key, err := env.loadPool(name)
			if err != nil {
				return nil, nil, err
			}
			poolKeys = append(poolKeys, key)
		}
		return program.EncodeInstruction(program.ConsolidatePoolFees{PoolCount: uint8(len(poolKeys))}),
			env.eng.ConsolidateAccounts(poolKeys), nil

	case "withdraw_treasury":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		recipient, err := env.key(step.Recipient)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.WithdrawTreasuryFees{Amount: step.Amount}),
			env.eng.WithdrawTreasuryFeesAccounts(signer, recipient), nil

	case "propose_admin":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		newAdmin, err := env.key(step.NewAdmin)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.InitiateAdminChange{NewAdmin: newAdmin}),
			env.eng.SystemControlAccounts(signer), nil

	case "finalize_admin":
		return program.EncodeInstruction(program.FinalizeAdminChange{}),
			env.eng.FinalizeAdminChangeAccounts(), nil

	case "cancel_admin":
		signer, err := env.key(step.Signer)
		if err != nil {
			return nil, nil, err
		}
		return program.EncodeInstruction(program.CancelAdminChange{}),
			env.eng.SystemControlAccounts(signer), nil

	case "get_version":
		return program.EncodeInstruction(program.GetVersion{}), nil, nil

	case "treasury_info":
		return program.EncodeInstruction(program.GetTreasuryInfo{}),
			env.eng.TreasuryInfoAccounts(), nil

	default:
		return nil, nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func init() {
	replayCmd.Flags().BoolVar(&replayMetrics, "metrics", false, "report execution metrics after the run")
	rootCmd.AddCommand(replayCmd)
}
