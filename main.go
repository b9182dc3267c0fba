package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solkit/solkit/internal/adapter/llm"
	"github.com/solkit/solkit/internal/config"
	"github.com/solkit/solkit/internal/policy"
	store "github.com/solkit/solkit/internal/repository"
	"github.com/solkit/solkit/internal/service"
	"github.com/solkit/solkit/internal/solana"
	"github.com/solkit/solkit/internal/tokenizer"
	"github.com/solkit/solkit/internal/tools"
	httpserver "github.com/solkit/solkit/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting SolKit backend...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Solana RPC: %s", cfg.SolanaRPCURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize model router
	router := llm.NewRouter(cfg.OpenAIAPIKey, cfg.OpenRouterAPIKey, cfg.InfyrAPIKey, cfg.LLMTimeout)

	// Initialize Solana RPC client
	rpc := solana.NewClient(cfg.SolanaRPCURL, 30*time.Second)

	// Initialize token counter
	counter, err := tokenizer.NewTiktokenCounter()
	if err != nil {
		log.Fatalf("Failed to initialize token counter: %v", err)
	}

	// Register the toolkit
	toolClient := &http.Client{Timeout: 30 * time.Second}
	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewWalletPortfolioTool(rpc))
	registry.MustRegister(tools.NewTokenIdentificationTool())
	registry.MustRegister(tools.NewBirdeyeTokenTrendingTool(cfg.BirdeyeAPIKey, toolClient))
	registry.MustRegister(tools.NewBirdeyeAllTimeTradesTool(cfg.BirdeyeAPIKey, toolClient))
	registry.MustRegister(tools.NewDexScreenerTopBoostsTool(toolClient))
	registry.MustRegister(tools.NewDexScreenerTokenInformationTool(toolClient))
	registry.MustRegister(tools.NewJupiterTokenPriceTool(toolClient))
	registry.MustRegister(tools.NewJupiterTokenInformationTool(toolClient))
	registry.MustRegister(tools.NewFluxBeamTokenPriceTool(toolClient))
	registry.MustRegister(tools.NewRugcheckTokenInformationTool(toolClient))
	registry.MustRegister(tools.NewCMCTrendingCoinsTool(cfg.CMCAPIKey, toolClient))
	registry.MustRegister(tools.NewCoinGeckoTrendingTool(toolClient))

	// Initialize service
	svc := service.New(cfg, db, router, registry, policyEngine, rpc, counter)

	// Create the HTTP server
	server := httpserver.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("SolKit backend stopped")
}
