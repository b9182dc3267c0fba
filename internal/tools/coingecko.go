package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoTrendingTool lists trending coins and NFTs on CoinGecko.
type CoinGeckoTrendingTool struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoTrendingTool creates the CoinGecko trending tool.
func NewCoinGeckoTrendingTool(client *http.Client) *CoinGeckoTrendingTool {
	return &CoinGeckoTrendingTool{baseURL: coinGeckoBaseURL, client: client}
}

func (t *CoinGeckoTrendingTool) Name() string { return "coingecko_trending_tool" }

func (t *CoinGeckoTrendingTool) Description() string {
	return "Get top trending coins and NFTs on CoinGecko based on user searches and trading volume. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 5]"
}

func (t *CoinGeckoTrendingTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

type trendingResponse struct {
	Coins []struct {
		Item struct {
			Name          string  `json:"name"`
			Symbol        string  `json:"symbol"`
			MarketCapRank int     `json:"market_cap_rank"`
			PriceBTC      float64 `json:"price_btc"`
			Data          struct {
				MarketCap              string             `json:"market_cap"`
				PriceChangePercent24h  map[string]float64 `json:"price_change_percentage_24h"`
			} `json:"data"`
		} `json:"item"`
	} `json:"coins"`
	NFTs []struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
		Data   struct {
			FloorPrice string `json:"floor_price"`
			H24Volume  string `json:"h24_volume"`
		} `json:"data"`
	} `json:"nfts"`
}

func (t *CoinGeckoTrendingTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	log.Println("INFO: fetching trending data from CoinGecko")

	var data trendingResponse
	if err := fetchJSON(ctx, t.client, t.baseURL+"/search/trending", nil, &data); err != nil {
		return observation(ctx, "I couldn't retrieve the trending cryptocurrency data at this time.", err)
	}
	if len(data.Coins) == 0 {
		return "No trending data available at this time.", nil
	}

	var b strings.Builder
	b.WriteString("Top Trending Coins on CoinGecko (last 24 hours):\n")
	for i, coin := range data.Coins {
		if i >= 7 {
			break
		}
		item := coin.Item
		fmt.Fprintf(&b, "%d. %s (%s) - Rank #%d\n", i+1, item.Name, strings.ToUpper(item.Symbol), item.MarketCapRank)
		fmt.Fprintf(&b, "   Price: %.8f BTC\n", item.PriceBTC)
		if change, ok := item.Data.PriceChangePercent24h["usd"]; ok {
			fmt.Fprintf(&b, "   24h Change: %+.2f%%\n", change)
		}
		if item.Data.MarketCap != "" {
			fmt.Fprintf(&b, "   Market Cap: %s\n", item.Data.MarketCap)
		}
	}

	if len(data.NFTs) > 0 {
		b.WriteString("\nTop Trending NFTs (by trading volume):\n")
		for i, nft := range data.NFTs {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "%d. %s", i+1, nft.Name)
			if nft.Data.FloorPrice != "" {
				fmt.Fprintf(&b, " - Floor: %s", nft.Data.FloorPrice)
			}
			if nft.Data.H24Volume != "" {
				fmt.Fprintf(&b, " - 24h Volume: %s", nft.Data.H24Volume)
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
