package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
)

const birdeyeBaseURL = "https://public-api.birdeye.so"

func birdeyeHeaders(apiKey string) map[string]string {
	return map[string]string{
		"X-API-KEY": apiKey,
		"accept":    "application/json",
		"x-chain":   "solana",
	}
}

// BirdeyeTokenTrendingTool lists the top trending Solana tokens from
// the Birdeye public API.
type BirdeyeTokenTrendingTool struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewBirdeyeTokenTrendingTool creates the Birdeye trending tool.
func NewBirdeyeTokenTrendingTool(apiKey string, client *http.Client) *BirdeyeTokenTrendingTool {
	return &BirdeyeTokenTrendingTool{baseURL: birdeyeBaseURL, apiKey: apiKey, client: client}
}

func (t *BirdeyeTokenTrendingTool) Name() string { return "birdeye_token_trending_tool" }

func (t *BirdeyeTokenTrendingTool) Description() string {
	return "Get a list of top trending tokens on Solana with prices, market caps, and volume data. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *BirdeyeTokenTrendingTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"limit": intParam("Number of trending tokens to retrieve (max 20)"),
	})
}

func (t *BirdeyeTokenTrendingTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for trending tokens lookup: %v", err), nil
	}
	if input.Limit <= 0 {
		input.Limit = 10
	} else if input.Limit > 20 {
		input.Limit = 20
	}

	log.Printf("INFO: Birdeye token trending lookup with limit: %d", input.Limit)

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			UpdateTime string `json:"updateTime"`
			Tokens     []struct {
				Rank            int     `json:"rank"`
				Name            string  `json:"name"`
				Symbol          string  `json:"symbol"`
				Address         string  `json:"address"`
				Price           float64 `json:"price"`
				PriceChange24h  float64 `json:"price24hChangePercent"`
				MarketCap       float64 `json:"marketcap"`
				Volume24hUSD    float64 `json:"volume24hUSD"`
				VolumeChange24h float64 `json:"volume24hChangePercent"`
				Liquidity       float64 `json:"liquidity"`
			} `json:"tokens"`
		} `json:"data"`
	}
	requestURL := fmt.Sprintf("%s/defi/token_trending?sort_by=rank&sort_type=asc&offset=0&limit=%d", t.baseURL, input.Limit)
	if err := fetchJSON(ctx, t.client, requestURL, birdeyeHeaders(t.apiKey), &result); err != nil {
		return observation(ctx, "Failed to get trending tokens data", err)
	}
	if !result.Success || len(result.Data.Tokens) == 0 {
		return "No trending tokens found at this time", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d Trending Tokens on Solana (Updated: %s)\n\n", len(result.Data.Tokens), result.Data.UpdateTime)
	for _, token := range result.Data.Tokens {
		fmt.Fprintf(&b, "%d. %s (%s)\n", token.Rank, token.Name, token.Symbol)
		fmt.Fprintf(&b, "- Price: $%.6f (%+.2f%%)\n", token.Price, token.PriceChange24h)
		fmt.Fprintf(&b, "- Market Cap: $%.2f\n", token.MarketCap)
		fmt.Fprintf(&b, "- 24h Volume: $%.2f (%+.2f%%)\n", token.Volume24hUSD, token.VolumeChange24h)
		fmt.Fprintf(&b, "- Liquidity: $%.2f\n", token.Liquidity)
		fmt.Fprintf(&b, "- Contract: %s\n\n", token.Address)
	}
	return b.String(), nil
}

// BirdeyeAllTimeTradesTool reports lifetime trade statistics for one
// token from the Birdeye public API.
type BirdeyeAllTimeTradesTool struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewBirdeyeAllTimeTradesTool creates the Birdeye all-time trades tool.
func NewBirdeyeAllTimeTradesTool(apiKey string, client *http.Client) *BirdeyeAllTimeTradesTool {
	return &BirdeyeAllTimeTradesTool{baseURL: birdeyeBaseURL, apiKey: apiKey, client: client}
}

func (t *BirdeyeAllTimeTradesTool) Name() string { return "birdeye_all_time_trades_tool" }

func (t *BirdeyeAllTimeTradesTool) Description() string {
	return "Get comprehensive trade statistics (buys, sells, volumes) of all time for a specific token on Solana. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *BirdeyeAllTimeTradesTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"token_address": stringParam("The token address to get all time trade data for"),
	}, "token_address")
}

func (t *BirdeyeAllTimeTradesTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		TokenAddress string `json:"token_address"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for all time trades lookup: %v", err), nil
	}
	address := strings.TrimSpace(input.TokenAddress)
	if len(address) < 32 {
		return "Invalid token address. Please provide a valid Solana token address.", nil
	}

	log.Printf("INFO: Birdeye all time trades lookup for token: %s", address)

	var result struct {
		Success bool `json:"success"`
		Data    []struct {
			Address        string  `json:"address"`
			TotalTrade     int64   `json:"total_trade"`
			Buy            int64   `json:"buy"`
			Sell           int64   `json:"sell"`
			TotalVolume    float64 `json:"total_volume"`
			TotalVolumeUSD float64 `json:"total_volume_usd"`
			VolumeBuy      float64 `json:"volume_buy"`
			VolumeSell     float64 `json:"volume_sell"`
			VolumeBuyUSD   float64 `json:"volume_buy_usd"`
			VolumeSellUSD  float64 `json:"volume_sell_usd"`
		} `json:"data"`
	}
	requestURL := fmt.Sprintf("%s/defi/v3/all-time/trades/single?time_frame=alltime&address=%s", t.baseURL, url.QueryEscape(address))
	if err := fetchJSON(ctx, t.client, requestURL, birdeyeHeaders(t.apiKey), &result); err != nil {
		return observation(ctx, "Failed to get trade data for the token", err)
	}
	if !result.Success || len(result.Data) == 0 {
		return "No trade data found for this token", nil
	}
	stats := result.Data[0]

	var b strings.Builder
	fmt.Fprintf(&b, "All-Time Trading Statistics for %s\n\n", stats.Address)
	fmt.Fprintf(&b, "Total trades: %d (%d buys, %d sells)\n", stats.TotalTrade, stats.Buy, stats.Sell)
	fmt.Fprintf(&b, "Total volume: %.2f tokens (approximately $%.2f USD)\n", stats.TotalVolume, stats.TotalVolumeUSD)
	fmt.Fprintf(&b, "Bought: %.2f tokens ($%.2f USD), sold: %.2f tokens ($%.2f USD)\n",
		stats.VolumeBuy, stats.VolumeBuyUSD, stats.VolumeSell, stats.VolumeSellUSD)

	if stats.Sell > 0 {
		ratio := float64(stats.Buy) / float64(stats.Sell)
		fmt.Fprintf(&b, "Buy-to-sell transaction ratio: %.2f, ", ratio)
		switch {
		case ratio > 1.1:
			b.WriteString("indicating more buyers than sellers over the token's lifetime.")
		case ratio < 0.9:
			b.WriteString("indicating more sellers than buyers over the token's lifetime.")
		default:
			b.WriteString("showing a relatively balanced market between buyers and sellers.")
		}
	}
	return b.String(), nil
}
