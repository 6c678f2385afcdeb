package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/gnosis-builders/batchauction-orderbook/params"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/api"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/chain"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/checkpoint"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/maintenance"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/oracle"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/orderbook"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/signatures"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFilter(cfg.LogFilter)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("orderbook_starting", "chainId", cfg.ChainID, "bindAddress", cfg.BindAddress)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ethclient.DialContext(ctx, cfg.NodeURL)
	if err != nil {
		sugar.Fatalw("dial node failed", "err", err)
	}

	reader := chain.NewReader(client, common.HexToAddress(cfg.ContractAddr), cfg.BlocksPerRequest, sugar)

	var oracleClient *oracle.Client
	if cfg.OraclePairAddress != "" {
		oracleClient = oracle.NewClient(cfg.OracleURL, cfg.OraclePairAddress, sugar)
	}

	sigStore, err := signatures.Open(cfg.DBURL)
	if err != nil {
		sugar.Fatalw("open signature store failed", "err", err)
	}
	defer sigStore.Close()

	var cp *checkpoint.Store
	if cfg.CheckpointPath != "" {
		cp, err = checkpoint.Open(cfg.CheckpointPath)
		if err != nil {
			sugar.Warnw("checkpoint store unavailable, starting cold", "err", err)
		} else {
			defer cp.Close()
		}
	}

	confirmed := orderbook.New()
	latest := orderbook.New()

	loop := maintenance.New(reader, oracleClient, confirmed, latest, cfg.ChainID, cfg.MaintenanceInterval, cp, sugar)

	server := api.NewServer(latest, sigStore, loop, sugar)
	loop.OnCycle = server.BroadcastAuctions

	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.BindAddress)
		if err := server.Start(ctx, cfg.BindAddress); err != nil {
			sugar.Errorw("api_server_stopped", "err", err)
		}
	}()

	loop.Run(ctx)
	sugar.Info("orderbook_stopped")
}
