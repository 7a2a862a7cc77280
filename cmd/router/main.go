package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapRouter/internal/amm"
	"swapRouter/internal/chain"
	"swapRouter/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "router",
		Short:        "Constant-product AMM trading facade",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against live pair reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "chain RPC URL")
	quoteCmd.Flags().String("pair", "", "pair contract address")
	quoteCmd.Flags().String("token-in", "", "input token address")
	quoteCmd.Flags().String("amount-in", "", "input amount (decimal)")
	quoteCmd.Flags().Uint64("block", 0, "block number, 0 means latest")
	quoteCmd.Flags().Uint64("fee-numerator", 997, "swap fee numerator")
	quoteCmd.Flags().Uint64("fee-denominator", 1000, "swap fee denominator")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a trade plan through the facade",
		RunE:  runPlan,
	}

	runCmd.Flags().String("plan", "", "input plan JSONL path")
	runCmd.Flags().String("out", "./data/trades.jsonl", "output trade journal JSONL path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for journal persistence")
	runCmd.Flags().String("run-id", "", "run identifier for Postgres rows")
	runCmd.Flags().String("wrapped-native", "", "wrapped native token address")
	runCmd.Flags().String("router-address", "0x000000000000000000000000000000000000f00d", "facade account address")
	runCmd.Flags().Uint64("fee-numerator", 997, "swap fee numerator")
	runCmd.Flags().Uint64("fee-denominator", 1000, "swap fee denominator")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Pair) {
		return fmt.Errorf("pair must be a hex address")
	}
	if !common.IsHexAddress(cfg.TokenIn) {
		return fmt.Errorf("token-in must be a hex address")
	}
	amountIn, ok := new(big.Int).SetString(cfg.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		return fmt.Errorf("amount-in must be a positive decimal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	var blockNumber *big.Int
	if cfg.Block > 0 {
		blockNumber = new(big.Int).SetUint64(cfg.Block)
	}

	pair := common.HexToAddress(cfg.Pair)
	tokenIn := common.HexToAddress(cfg.TokenIn)

	token0, token1, err := client.PairTokens(ctx, pair, blockNumber)
	if err != nil {
		return err
	}
	reserve0, reserve1, err := client.PairReserves(ctx, pair, blockNumber)
	if err != nil {
		return err
	}

	var reserveIn, reserveOut *big.Int
	var tokenOut common.Address
	switch tokenIn {
	case token0:
		reserveIn, reserveOut, tokenOut = reserve0, reserve1, token1
	case token1:
		reserveIn, reserveOut, tokenOut = reserve1, reserve0, token0
	default:
		return fmt.Errorf("token %s is not part of pair %s", tokenIn.Hex(), pair.Hex())
	}

	amountOut, err := amm.GetAmountOut(amountIn, reserveIn, reserveOut, cfg.FeeNumerator, cfg.FeeDenominator)
	if err != nil {
		return err
	}

	logger.Info("quote",
		zap.String("pair", pair.Hex()),
		zap.String("token_in", tokenIn.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
		zap.String("reserve_in", reserveIn.String()),
		zap.String("reserve_out", reserveOut.String()),
	)

	fmt.Fprintln(cmd.OutOrStdout(), amountOut.String())
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
