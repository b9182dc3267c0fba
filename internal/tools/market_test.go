package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJupiterTokenPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/price/v2") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"MINT1":{"price":"1.234567"},"MINT2":{"price":""}}}`)
	}))
	defer server.Close()

	tool := &JupiterTokenPriceTool{baseURL: server.URL, client: server.Client()}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_addresses":"MINT1, MINT2"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "$1.234567 USD") {
		t.Fatalf("expected formatted price, got %q", out)
	}
	if !strings.Contains(out, "price not available") {
		t.Fatalf("expected missing-price note, got %q", out)
	}
}

func TestFluxBeamTokenPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "0.042137")
	}))
	defer server.Close()

	tool := &FluxBeamTokenPriceTool{baseURL: server.URL, client: server.Client()}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_address":"MINT1"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != "The current price of the token is 0.04214 USD (5 decimals)" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFluxBeamUnparsablePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not-a-number")
	}))
	defer server.Close()

	tool := &FluxBeamTokenPriceTool{baseURL: server.URL, client: server.Client()}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_address":"MINT1"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "couldn't be parsed") {
		t.Fatalf("expected parse failure message, got %q", out)
	}
}

func TestDexScreenerTokenInformation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/tokens/v1/solana/") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"chainId":"solana","dexId":"raydium","priceUsd":"2.31","baseToken":{"symbol":"RAY"},"quoteToken":{"symbol":"SOL"},"volume":{"h24":120000.5},"priceChange":{"h24":-3.2},"liquidity":{"usd":900000},"marketCap":500000000}]`)
	}))
	defer server.Close()

	tool := &DexScreenerTokenInformationTool{baseURL: server.URL, client: server.Client()}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_addresses":"MINT1"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "RAY/SOL on raydium") || !strings.Contains(out, "$2.31") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "-3.20%") {
		t.Fatalf("expected 24h change in output: %q", out)
	}
}

func TestDexScreenerTokenInformationNoAddresses(t *testing.T) {
	tool := &DexScreenerTokenInformationTool{baseURL: "http://unused", client: http.DefaultClient}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_addresses":" , "}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "No valid token addresses") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestBirdeyeTokenTrending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "birdeye-key" {
			t.Fatalf("missing API key header")
		}
		if r.URL.Query().Get("limit") != "20" {
			t.Fatalf("expected limit capped at 20, got %s", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":{"updateTime":"2026-08-30T00:00:00Z","tokens":[{"rank":1,"name":"Solana","symbol":"SOL","address":"So11111111111111111111111111111111111111112","price":150.5,"price24hChangePercent":2.5,"marketcap":70000000000,"volume24hUSD":3000000000,"volume24hChangePercent":-1.1,"liquidity":500000000}]}}`)
	}))
	defer server.Close()

	tool := &BirdeyeTokenTrendingTool{baseURL: server.URL, apiKey: "birdeye-key", client: server.Client()}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"limit":50}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "Solana (SOL)") || !strings.Contains(out, "+2.50%") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestBirdeyeAllTimeTrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/defi/v3/all-time/trades/single") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":[{"address":"MINT1111111111111111111111111111111111111111","total_trade":300,"buy":200,"sell":100,"total_volume":5000,"total_volume_usd":7500,"volume_buy":3000,"volume_sell":2000,"volume_buy_usd":4500,"volume_sell_usd":3000}]}`)
	}))
	defer server.Close()

	tool := &BirdeyeAllTimeTradesTool{baseURL: server.URL, apiKey: "birdeye-key", client: server.Client()}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_address":"MINT1111111111111111111111111111111111111111"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "300 (200 buys, 100 sells)") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "more buyers than sellers") {
		t.Fatalf("expected ratio commentary, got %q", out)
	}
}

func TestBirdeyeAllTimeTradesRejectsShortAddress(t *testing.T) {
	tool := &BirdeyeAllTimeTradesTool{baseURL: "http://unused", apiKey: "k", client: http.DefaultClient}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_address":"abc"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "Invalid token address") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCMCTrendingCoinsSendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CMC_PRO_API_KEY") != "cmc-key" {
			t.Fatalf("missing API key header")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"name":"Bitcoin","symbol":"BTC","cmc_rank":1,"quote":{"USD":{"price":60000,"market_cap":1200000000000,"percent_change_24h":1.5}}}]}`)
	}))
	defer server.Close()

	tool := &CMCTrendingCoinsTool{baseURL: server.URL, apiKey: "cmc-key", client: server.Client()}
	out, err := tool.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "Bitcoin (BTC)") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestToolFailureBecomesObservation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	tool := &RugcheckTokenInformationTool{baseURL: server.URL, client: server.Client()}
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"token_address":"MINT1"}`))
	if err != nil {
		t.Fatalf("upstream failure must not surface as an error: %v", err)
	}
	if !strings.Contains(out, "418") {
		t.Fatalf("expected failure observation mentioning status, got %q", out)
	}
}

func TestToolCancelledContextReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tool := &CoinGeckoTrendingTool{baseURL: server.URL, client: server.Client()}
	_, err := tool.Invoke(ctx, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
