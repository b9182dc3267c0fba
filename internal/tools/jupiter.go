package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const jupiterBaseURL = "https://lite-api.jup.ag"

// JupiterTokenPriceTool looks up USD prices for tokens on Jupiter.
type JupiterTokenPriceTool struct {
	baseURL string
	client  *http.Client
}

// NewJupiterTokenPriceTool creates the Jupiter price tool.
func NewJupiterTokenPriceTool(client *http.Client) *JupiterTokenPriceTool {
	return &JupiterTokenPriceTool{baseURL: jupiterBaseURL, client: client}
}

func (t *JupiterTokenPriceTool) Name() string { return "jupiter_token_price_tool" }

func (t *JupiterTokenPriceTool) Description() string {
	return "Get the current price of one or more Solana tokens in USD from Jupiter. Supports multiple comma-separated token addresses. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *JupiterTokenPriceTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"token_addresses": stringParam("Comma-separated token addresses to check prices on Jupiter"),
	}, "token_addresses")
}

func (t *JupiterTokenPriceTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		TokenAddresses string `json:"token_addresses"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for Jupiter price lookup: %v", err), nil
	}
	addresses := strings.ReplaceAll(strings.TrimSpace(input.TokenAddresses), " ", "")
	if addresses == "" {
		return "No token addresses provided.", nil
	}

	log.Printf("INFO: Jupiter token price lookup for: %s", addresses)

	var result struct {
		Data map[string]struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	requestURL := fmt.Sprintf("%s/price/v2?ids=%s", t.baseURL, url.QueryEscape(addresses))
	if err := fetchJSON(ctx, t.client, requestURL, nil, &result); err != nil {
		return observation(ctx, "Failed to get token prices.", err)
	}
	if len(result.Data) == 0 {
		return "Failed to get token prices. The API returned no data.", nil
	}

	var b strings.Builder
	b.WriteString("Token Prices from Jupiter:\n")
	for address, info := range result.Data {
		if info.Price == "" {
			fmt.Fprintf(&b, "- %s: price not available\n", address)
			continue
		}
		price, err := strconv.ParseFloat(info.Price, 64)
		if err != nil {
			fmt.Fprintf(&b, "- %s: could not parse price value\n", address)
			continue
		}
		fmt.Fprintf(&b, "- %s: $%.6f USD\n", address, price)
	}
	return b.String(), nil
}

// JupiterTokenInformationTool fetches token metadata from Jupiter.
type JupiterTokenInformationTool struct {
	baseURL string
	client  *http.Client
}

// NewJupiterTokenInformationTool creates the Jupiter token info tool.
func NewJupiterTokenInformationTool(client *http.Client) *JupiterTokenInformationTool {
	return &JupiterTokenInformationTool{baseURL: jupiterBaseURL, client: client}
}

func (t *JupiterTokenInformationTool) Name() string { return "jupiter_token_information_tool" }

func (t *JupiterTokenInformationTool) Description() string {
	return "Get detailed token information and metadata for a specific Solana token from Jupiter. Provides details like name, symbol, decimals, and other token attributes. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *JupiterTokenInformationTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"token_address": stringParam("The token address to get information about"),
	}, "token_address")
}

func (t *JupiterTokenInformationTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		TokenAddress string `json:"token_address"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for Jupiter token lookup: %v", err), nil
	}
	address := strings.TrimSpace(input.TokenAddress)
	if address == "" {
		return "No token address provided.", nil
	}

	log.Printf("INFO: Jupiter token information lookup for: %s", address)

	var info struct {
		Name     string   `json:"name"`
		Symbol   string   `json:"symbol"`
		Decimals int      `json:"decimals"`
		Tags     []string `json:"tags"`
		DailyVol float64  `json:"daily_volume"`
	}
	requestURL := fmt.Sprintf("%s/tokens/v1/token/%s", t.baseURL, url.PathEscape(address))
	if err := fetchJSON(ctx, t.client, requestURL, nil, &info); err != nil {
		return observation(ctx, "Failed to get token information.", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Token Information for %s (%s):\n", info.Name, info.Symbol)
	fmt.Fprintf(&b, "Contract Address: %s\n", address)
	fmt.Fprintf(&b, "Decimals: %d\n", info.Decimals)
	if len(info.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(info.Tags, ", "))
	}
	if info.DailyVol > 0 {
		fmt.Fprintf(&b, "Daily Volume: $%.2f\n", info.DailyVol)
	}
	return b.String(), nil
}
