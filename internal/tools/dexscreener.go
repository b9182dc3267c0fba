package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

const dexScreenerBaseURL = "https://api.dexscreener.com"

// DexScreenerTopBoostsTool lists the most boosted tokens on DexScreener.
type DexScreenerTopBoostsTool struct {
	baseURL string
	client  *http.Client
}

// NewDexScreenerTopBoostsTool creates the top boosts tool.
func NewDexScreenerTopBoostsTool(client *http.Client) *DexScreenerTopBoostsTool {
	return &DexScreenerTopBoostsTool{baseURL: dexScreenerBaseURL, client: client}
}

func (t *DexScreenerTopBoostsTool) Name() string { return "dexscreener_top_boosts_tool" }

func (t *DexScreenerTopBoostsTool) Description() string {
	return "Get tokens with the most active boosts on DexScreener, showing popularity and trending projects. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *DexScreenerTopBoostsTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"limit": intParam("The number of top boosted tokens to retrieve (default: 10, max: 30)"),
	})
}

type boostedToken struct {
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	Description  string  `json:"description"`
	TotalAmount  float64 `json:"totalAmount"`
}

func (t *DexScreenerTopBoostsTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for top boosts lookup: %v", err), nil
	}
	if input.Limit <= 0 {
		input.Limit = 10
	} else if input.Limit > 30 {
		input.Limit = 30
	}

	log.Printf("INFO: DexScreener top boosts lookup, limit: %d", input.Limit)

	var tokens []boostedToken
	if err := fetchJSON(ctx, t.client, t.baseURL+"/token-boosts/top/v1", nil, &tokens); err != nil {
		return observation(ctx, "Failed to get top boosted tokens.", err)
	}
	if len(tokens) == 0 {
		return "No top boosted tokens found.", nil
	}
	if len(tokens) > input.Limit {
		tokens = tokens[:input.Limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d Boosted Tokens on DexScreener:\n", len(tokens))
	for i, token := range tokens {
		description := token.Description
		if len(description) > 150 {
			description = description[:147] + "..."
		}
		fmt.Fprintf(&b, "%d. Token on %s\n", i+1, token.ChainID)
		fmt.Fprintf(&b, "   Address: %s\n", token.TokenAddress)
		fmt.Fprintf(&b, "   Boost Amount: %.0f\n", token.TotalAmount)
		if description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", description)
		}
	}
	return b.String(), nil
}

// DexScreenerTokenInformationTool reports DEX pair data for tokens.
type DexScreenerTokenInformationTool struct {
	baseURL string
	client  *http.Client
}

// NewDexScreenerTokenInformationTool creates the token information tool.
func NewDexScreenerTokenInformationTool(client *http.Client) *DexScreenerTokenInformationTool {
	return &DexScreenerTokenInformationTool{baseURL: dexScreenerBaseURL, client: client}
}

func (t *DexScreenerTokenInformationTool) Name() string {
	return "dexscreener_token_information_tool"
}

func (t *DexScreenerTokenInformationTool) Description() string {
	return "Get detailed DEX information about Solana tokens including price, volume, liquidity, and trading activity. It must be sent token addresses only as input. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *DexScreenerTokenInformationTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"token_addresses": stringParam("Comma-separated list of token addresses to get information about (max 10)"),
	}, "token_addresses")
}

type dexPair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	URL       string `json:"url"`
	PriceUSD  string `json:"priceUsd"`
	BaseToken struct {
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	MarketCap float64 `json:"marketCap"`
}

func (t *DexScreenerTokenInformationTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		TokenAddresses string `json:"token_addresses"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for token information lookup: %v", err), nil
	}

	var addresses []string
	for _, addr := range strings.Split(input.TokenAddresses, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addresses = append(addresses, addr)
		}
	}
	if len(addresses) == 0 {
		return "No valid token addresses provided. Please provide at least one token address.", nil
	}
	if len(addresses) > 10 {
		log.Println("WARN: too many token addresses requested, limiting to 10")
		addresses = addresses[:10]
	}

	log.Printf("INFO: DexScreener token information lookup for %s", strings.Join(addresses, ","))

	url := fmt.Sprintf("%s/tokens/v1/solana/%s", t.baseURL, strings.Join(addresses, ","))
	var pairs []dexPair
	if err := fetchJSON(ctx, t.client, url, nil, &pairs); err != nil {
		return observation(ctx, "Failed to get token information.", err)
	}
	if len(pairs) == 0 {
		return "No token information found.", nil
	}

	var b strings.Builder
	b.WriteString("DexScreener Token Information:\n")
	for _, pair := range pairs {
		fmt.Fprintf(&b, "%s/%s on %s (%s)\n", pair.BaseToken.Symbol, pair.QuoteToken.Symbol, pair.DexID, pair.ChainID)
		if pair.PriceUSD != "" {
			fmt.Fprintf(&b, "  Price (USD): $%s\n", pair.PriceUSD)
		}
		fmt.Fprintf(&b, "  24h Change: %+.2f%%\n", pair.PriceChange.H24)
		fmt.Fprintf(&b, "  24h Volume: $%.2f\n", pair.Volume.H24)
		fmt.Fprintf(&b, "  Liquidity: $%.2f\n", pair.Liquidity.USD)
		if pair.MarketCap > 0 {
			fmt.Fprintf(&b, "  Market Cap: $%.2f\n", pair.MarketCap)
		}
	}
	return b.String(), nil
}
