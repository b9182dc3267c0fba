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

const fluxBeamBaseURL = "https://data.fluxbeam.xyz"

// FluxBeamTokenPriceTool looks up a token's USD price on FluxBeam.
type FluxBeamTokenPriceTool struct {
	baseURL string
	client  *http.Client
}

// NewFluxBeamTokenPriceTool creates the FluxBeam price tool.
func NewFluxBeamTokenPriceTool(client *http.Client) *FluxBeamTokenPriceTool {
	return &FluxBeamTokenPriceTool{baseURL: fluxBeamBaseURL, client: client}
}

func (t *FluxBeamTokenPriceTool) Name() string { return "fluxbeam_token_price_tool" }

func (t *FluxBeamTokenPriceTool) Description() string {
	return "Get the current price of a token in USD (US Dollars) from FluxBeam. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 4]"
}

func (t *FluxBeamTokenPriceTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"token_address": stringParam("The token address to check price on FluxBeam"),
	}, "token_address")
}

func (t *FluxBeamTokenPriceTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		TokenAddress string `json:"token_address"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for FluxBeam price lookup: %v", err), nil
	}
	address := strings.TrimSpace(input.TokenAddress)
	if address == "" {
		return "No token address provided.", nil
	}

	log.Printf("INFO: FluxBeam token price lookup for: %s", address)

	requestURL := fmt.Sprintf("%s/tokens/%s/price", t.baseURL, url.PathEscape(address))
	body, err := fetchBody(ctx, t.client, requestURL, nil)
	if err != nil {
		return observation(ctx, "Failed to get token price of that token.", err)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		log.Printf("ERROR: failed to parse FluxBeam price data: %s", body)
		return "Failed to get token price of that token. The price data couldn't be parsed as a number.", nil
	}
	return fmt.Sprintf("The current price of the token is %.5f USD (5 decimals)", price), nil
}
