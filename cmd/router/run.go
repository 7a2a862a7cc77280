package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapRouter/internal/config"
	"swapRouter/internal/dex"
	"swapRouter/internal/model"
	"swapRouter/internal/router"
	"swapRouter/internal/storage"
	"swapRouter/internal/storage/postgres"
)

func runPlan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Plan == "" {
		return fmt.Errorf("plan path is required")
	}
	if !common.IsHexAddress(cfg.WrappedNative) {
		return fmt.Errorf("wrapped-native must be a hex address")
	}
	if !common.IsHexAddress(cfg.RouterAddress) {
		return fmt.Errorf("router-address must be a hex address")
	}

	engine, err := dex.NewEngine(dex.Config{
		WrappedNative:  common.HexToAddress(cfg.WrappedNative),
		FeeNumerator:   cfg.FeeNumerator,
		FeeDenominator: cfg.FeeDenominator,
	}, logger)
	if err != nil {
		return err
	}
	facade, err := router.NewRouter(router.Config{
		Address: common.HexToAddress(cfg.RouterAddress),
	}, engine, logger)
	if err != nil {
		return err
	}

	planFile, err := os.Open(cfg.Plan)
	if err != nil {
		return fmt.Errorf("open plan: %w", err)
	}
	defer planFile.Close()

	logger.Info("run start",
		zap.String("plan", cfg.Plan),
		zap.String("out", cfg.Out),
		zap.String("wrapped_native", cfg.WrappedNative),
		zap.String("router_address", cfg.RouterAddress),
		zap.Uint64("fee_numerator", cfg.FeeNumerator),
		zap.Uint64("fee_denominator", cfg.FeeDenominator),
	)

	scanner := bufio.NewScanner(planFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var trades []model.TradeRecord
	var total, succeeded, failed int
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var op model.PlanOp
		if err := json.Unmarshal(line, &op); err != nil {
			failed++
			trades = append(trades, model.TradeRecord{
				Seq:        total,
				Status:     model.TradeStatusFailed,
				Error:      fmt.Sprintf("parse plan line: %v", err),
				ExecutedAt: time.Now().UTC().Format(time.RFC3339),
			})
			continue
		}

		record := applyOp(engine, facade, op)
		record.Seq = total
		record.ExecutedAt = time.Now().UTC().Format(time.RFC3339)
		if record.Status == model.TradeStatusFailed {
			failed++
			logger.Warn("plan op failed",
				zap.Int("seq", record.Seq),
				zap.String("op", record.Op),
				zap.String("error", record.Error),
			)
		} else {
			succeeded++
		}
		trades = append(trades, record)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan plan: %w", err)
	}

	sink := storage.NewJsonlStorage(cfg.Out)
	if err := sink.PutTradeBatch(trades); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}

	if cfg.PgDSN != "" {
		if err := persistRun(cfg, engine, trades); err != nil {
			return err
		}
	}

	logger.Info("run complete",
		zap.Int("total", total),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("pools", len(engine.Pairs())),
	)

	return nil
}

// applyOp executes a single plan operation. Failures come back as a failed
// record rather than an error: the facade reverts its own state, so the rest
// of the plan stays runnable.
func applyOp(engine *dex.Engine, facade *router.Router, op model.PlanOp) model.TradeRecord {
	record := model.TradeRecord{
		Op:        op.Op,
		Caller:    op.Caller,
		Token:     op.Token,
		Recipient: op.Recipient,
		Status:    model.TradeStatusOK,
	}
	fail := func(err error) model.TradeRecord {
		record.Status = model.TradeStatusFailed
		record.Error = err.Error()
		return record
	}

	switch op.Op {
	case model.OpSeedToken:
		token, err := parseAddr("token", op.Token)
		if err != nil {
			return fail(err)
		}
		account, err := parseAddr("account", op.Account)
		if err != nil {
			return fail(err)
		}
		amount, err := parseAmount("amount", op.Amount)
		if err != nil {
			return fail(err)
		}
		engine.Mint(token, account, amount)
		record.Caller = op.Account
		record.AmountIn = amount.String()

	case model.OpSeedNative:
		account, err := parseAddr("account", op.Account)
		if err != nil {
			return fail(err)
		}
		amount, err := parseAmount("amount", op.Amount)
		if err != nil {
			return fail(err)
		}
		engine.CreditNative(account, amount)
		record.Caller = op.Account
		record.AmountIn = amount.String()

	case model.OpApprove:
		token, err := parseAddr("token", op.Token)
		if err != nil {
			return fail(err)
		}
		caller, err := parseAddr("caller", op.Caller)
		if err != nil {
			return fail(err)
		}
		amount, err := parseAmount("amount", op.Amount)
		if err != nil {
			return fail(err)
		}
		engine.Approve(token, caller, facade.Address(), amount)
		record.AmountIn = amount.String()

	case model.OpSwapNativeForTokens:
		caller, token, recipient, err := tradeParties(op)
		if err != nil {
			return fail(err)
		}
		nativeIn, err := parseAmount("native_in", op.NativeIn)
		if err != nil {
			return fail(err)
		}
		minOut, err := parseAmount("min_out", op.MinOut)
		if err != nil {
			return fail(err)
		}
		out, err := facade.SwapExactNativeForTokens(caller, token, nativeIn, minOut, recipient, op.Deadline)
		if err != nil {
			return fail(err)
		}
		record.AmountIn = nativeIn.String()
		record.AmountOut = out.String()

	case model.OpSwapTokensForNative:
		caller, token, recipient, err := tradeParties(op)
		if err != nil {
			return fail(err)
		}
		amountIn, err := parseAmount("amount_in", op.AmountIn)
		if err != nil {
			return fail(err)
		}
		minOut, err := parseAmount("min_out", op.MinOut)
		if err != nil {
			return fail(err)
		}
		out, err := facade.SwapExactTokensForNative(caller, token, amountIn, minOut, recipient, op.Deadline)
		if err != nil {
			return fail(err)
		}
		record.AmountIn = amountIn.String()
		record.AmountOut = out.String()

	case model.OpAddLiquidity:
		caller, token, recipient, err := tradeParties(op)
		if err != nil {
			return fail(err)
		}
		desired, err := parseAmount("amount_token_desired", op.AmountTokenDesired)
		if err != nil {
			return fail(err)
		}
		nativeIn, err := parseAmount("native_in", op.NativeIn)
		if err != nil {
			return fail(err)
		}
		tokenMin, err := parseOptAmount("amount_token_min", op.AmountTokenMin)
		if err != nil {
			return fail(err)
		}
		nativeMin, err := parseOptAmount("native_min", op.NativeMin)
		if err != nil {
			return fail(err)
		}
		amountToken, amountNative, liquidity, err := facade.AddLiquidityNative(
			caller, token, desired, nativeIn, tokenMin, nativeMin, recipient, op.Deadline)
		if err != nil {
			return fail(err)
		}
		record.AmountToken = amountToken.String()
		record.AmountNative = amountNative.String()
		record.Liquidity = liquidity.String()

	case model.OpRemoveLiquidity:
		caller, token, recipient, err := tradeParties(op)
		if err != nil {
			return fail(err)
		}
		liquidity, err := parseAmount("liquidity", op.Liquidity)
		if err != nil {
			return fail(err)
		}
		tokenMin, err := parseOptAmount("amount_token_min", op.AmountTokenMin)
		if err != nil {
			return fail(err)
		}
		nativeMin, err := parseOptAmount("native_min", op.NativeMin)
		if err != nil {
			return fail(err)
		}
		amountToken, amountNative, err := facade.RemoveLiquidityNative(
			caller, token, liquidity, tokenMin, nativeMin, recipient, op.Deadline)
		if err != nil {
			return fail(err)
		}
		record.AmountToken = amountToken.String()
		record.AmountNative = amountNative.String()
		record.Liquidity = liquidity.String()

	default:
		return fail(fmt.Errorf("unknown op %q", op.Op))
	}

	return record
}

// tradeParties parses the caller, token and recipient of a trade op. An empty
// recipient defaults to the caller.
func tradeParties(op model.PlanOp) (caller, token, recipient common.Address, err error) {
	caller, err = parseAddr("caller", op.Caller)
	if err != nil {
		return
	}
	token, err = parseAddr("token", op.Token)
	if err != nil {
		return
	}
	if op.Recipient == "" {
		recipient = caller
		return
	}
	recipient, err = parseAddr("recipient", op.Recipient)
	return
}

func parseAddr(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: %q is not a hex address", name, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(name, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%s: %q is not a positive decimal", name, value)
	}
	return amount, nil
}

func parseOptAmount(name, value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%s: %q is not a decimal", name, value)
	}
	return amount, nil
}

// persistRun mirrors the journal and the final pool states into Postgres.
func persistRun(cfg config.RunConfig, engine *dex.Engine, trades []model.TradeRecord) error {
	runID := cfg.RunID
	if runID == "" {
		runID = time.Now().UTC().Format("20060102T150405Z")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PgDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.InsertTrades(ctx, runID, trades); err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}

	pairs := engine.Pairs()
	pools := make([]model.PoolRecord, 0, len(pairs))
	for _, p := range pairs {
		pools = append(pools, model.PoolRecord{
			Pair:        p.Address.Hex(),
			Token0:      p.Token0.Hex(),
			Token1:      p.Token1.Hex(),
			Reserve0:    p.Reserve0.String(),
			Reserve1:    p.Reserve1.String(),
			TotalSupply: p.Supply.String(),
		})
	}
	if err := store.UpsertPools(ctx, pools); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	return nil
}
