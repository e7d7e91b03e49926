// Command ethtx-decode decodes a single transaction hash and prints the
// enriched result as JSON, following the flag/context/signal shape
// joacorob-etl-evm-chain's cmd/indexer.go uses for its own entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethtx/ethtx-go/internal/config"
	"github.com/ethtx/ethtx-go/orchestrator"
	"github.com/ethtx/ethtx-go/providers"
	"github.com/ethtx/ethtx-go/semantics"
	"github.com/ethtx/ethtx-go/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	txHash := flag.String("tx", "", "Transaction hash to decode")
	timeout := flag.Duration("timeout", 30*time.Second, "Decode timeout")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *txHash == "" {
		log.Fatal("missing required -tx flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logrus.Info("interrupt received, shutting down gracefully...")
		cancel()
	}()

	node, err := providers.NewEthClientNode(ctx, cfg.RPCURL)
	if err != nil {
		log.Fatalf("failed to connect to node: %v", err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	contractSource := providers.NewEtherscanProvider(cfg.Etherscan.BaseURL, cfg.Etherscan.APIKey)
	signatureDir := providers.NewFourByteProvider(cfg.FourByte.BaseURL)
	repo := semantics.NewRepository(db, node, contractSource, signatureDir, nil)

	decoder := orchestrator.NewDecoder(cfg.ChainID, node, repo)
	tx, err := decoder.DecodeTransaction(ctx, *txHash)
	if err != nil {
		log.Fatalf("decode failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(tx); err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
}
