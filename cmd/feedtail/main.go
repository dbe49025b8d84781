// Package main provides a CLI tool that tails the on-chain activity feed.
// It is a diagnostic for the feed monitor: it runs the same backfill and
// live subscriptions as the server and prints each snapshot to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luloxi/molotov/internal/chain"
	"github.com/luloxi/molotov/internal/config"
	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/feed"
	"github.com/luloxi/molotov/internal/logging"
)

func main() {
	var (
		interval = flag.Duration("interval", 10*time.Second, "How often to print the feed snapshot")
		limit    = flag.Int("limit", 10, "Maximum events to print per snapshot")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel("warn"), logging.ParseLogFormat("text"))

	provider, err := chain.NewRPCProvider(cfg.Chain.RPCPrimary, cfg.Chain.RPCSecondary)
	if err != nil {
		log.Fatalf("Failed to create RPC provider: %v", err)
	}

	client, err := chain.NewClient(provider, cfg.Chain.RPCTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to chain RPC: %v", err)
	}
	defer client.Close()

	binding, err := contract.NewBinding(cfg.Chain.ContractAddress, client)
	if err != nil {
		log.Fatalf("Invalid contract address: %v", err)
	}

	monitor := feed.NewMonitor(client, binding, feed.MonitorConfig{
		MaxEvents:       cfg.Feed.MaxEvents,
		DeploymentBlock: cfg.Chain.DeploymentBlock,
		LookbackBlocks:  cfg.Feed.LookbackBlocks,
		ChunkSize:       cfg.Feed.ChunkSize,
		AvgBlockTime:    cfg.Feed.AvgBlockTime,
	})

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := monitor.Start(startCtx); err != nil {
		log.Printf("Initial backfill failed, tailing live events only: %v", err)
	}
	cancelStart()
	defer monitor.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	printSnapshot(monitor, *limit)
	for {
		select {
		case <-ticker.C:
			printSnapshot(monitor, *limit)
		case <-quit:
			return
		}
	}
}

func printSnapshot(monitor *feed.Monitor, limit int) {
	snap := monitor.Snapshot()

	fmt.Printf("--- %s  events=%d loading=%v", snap.RefreshedAt.Format(time.RFC3339), len(snap.Events), snap.Loading)
	if snap.LastError != "" {
		fmt.Printf(" lastError=%q", snap.LastError)
	}
	fmt.Println()

	for i, event := range snap.Events {
		if i >= limit {
			fmt.Printf("... %d more\n", len(snap.Events)-limit)
			break
		}
		name := event.Actor
		if event.ActorName != "" {
			name = event.ActorName
		}
		fmt.Printf("%-10s block=%-10d token=%-6s actor=%s", event.Kind, event.BlockNumber, event.TokenID, name)
		if event.Title != "" {
			fmt.Printf(" title=%q", event.Title)
		}
		if event.AmountWei != "" {
			fmt.Printf(" wei=%s", event.AmountWei)
		}
		fmt.Println()
	}
}
