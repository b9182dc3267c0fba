package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

const cmcBaseURL = "https://pro-api.coinmarketcap.com"

// CMCTrendingCoinsTool lists top cryptocurrencies by market cap from
// the CoinMarketCap pro API.
type CMCTrendingCoinsTool struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCMCTrendingCoinsTool creates the CoinMarketCap trending tool.
func NewCMCTrendingCoinsTool(apiKey string, client *http.Client) *CMCTrendingCoinsTool {
	return &CMCTrendingCoinsTool{baseURL: cmcBaseURL, apiKey: apiKey, client: client}
}

func (t *CMCTrendingCoinsTool) Name() string { return "cmc_trending_coins_tool" }

func (t *CMCTrendingCoinsTool) Description() string {
	return "Get a list of top cryptocurrencies ranked by market cap with price, market cap, and 24h change data. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *CMCTrendingCoinsTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"limit": intParam("Number of coins to fetch (default: 20, max: 100)"),
	})
}

func (t *CMCTrendingCoinsTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for trending coins lookup: %v", err), nil
	}
	if input.Limit <= 0 {
		input.Limit = 20
	} else if input.Limit > 100 {
		input.Limit = 100
	}

	log.Printf("INFO: fetching latest %d trending coins from CoinMarketCap", input.Limit)

	var result struct {
		Data []struct {
			Name    string `json:"name"`
			Symbol  string `json:"symbol"`
			CMCRank int    `json:"cmc_rank"`
			Quote   struct {
				USD struct {
					Price            float64 `json:"price"`
					MarketCap        float64 `json:"market_cap"`
					PercentChange24h float64 `json:"percent_change_24h"`
				} `json:"USD"`
			} `json:"quote"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/v1/cryptocurrency/listings/latest?limit=%d&convert=USD", t.baseURL, input.Limit)
	headers := map[string]string{"X-CMC_PRO_API_KEY": t.apiKey}
	if err := fetchJSON(ctx, t.client, url, headers, &result); err != nil {
		return observation(ctx, "I couldn't retrieve the latest trending coins at this moment.", err)
	}
	if len(result.Data) == 0 {
		return "No trending coins data available at this time.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the top %d cryptocurrencies by market cap:\n", len(result.Data))
	for _, coin := range result.Data {
		usd := coin.Quote.USD
		fmt.Fprintf(&b, "%d. %s (%s): $%.2f | Market Cap: $%.0f | 24h Change: %+.2f%%\n",
			coin.CMCRank, coin.Name, coin.Symbol, usd.Price, usd.MarketCap, usd.PercentChange24h)
	}
	return b.String(), nil
}
