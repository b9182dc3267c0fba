package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const rugcheckBaseURL = "https://api.rugcheck.xyz"

// RugcheckTokenInformationTool fetches a token risk report from
// rugcheck.xyz: creator, supply, top holders and identified risks.
type RugcheckTokenInformationTool struct {
	baseURL string
	client  *http.Client
}

// NewRugcheckTokenInformationTool creates the rugcheck tool.
func NewRugcheckTokenInformationTool(client *http.Client) *RugcheckTokenInformationTool {
	return &RugcheckTokenInformationTool{baseURL: rugcheckBaseURL, client: client}
}

func (t *RugcheckTokenInformationTool) Name() string { return "rugcheck_token_information_tool" }

func (t *RugcheckTokenInformationTool) Description() string {
	return "Get detailed token information including creator details, supply, top holders, and insiders information. [MEDIUM PRIORITY, SHOULD BE USED IN PLACE: 3]"
}

func (t *RugcheckTokenInformationTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"token_address": stringParam("The token address to inspect"),
	}, "token_address")
}

type rugcheckReport struct {
	TokenMeta struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"tokenMeta"`
	Creator        string  `json:"creator"`
	CreatorBalance float64 `json:"creatorBalance"`
	Token          struct {
		Supply   float64 `json:"supply"`
		Decimals int     `json:"decimals"`
	} `json:"token"`
	TopHolders []struct {
		Address  string  `json:"address"`
		UIAmount float64 `json:"uiAmount"`
		Pct      float64 `json:"pct"`
		Insider  bool    `json:"insider"`
	} `json:"topHolders"`
	Risks []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"risks"`
	Score float64 `json:"score"`
}

func (t *RugcheckTokenInformationTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		TokenAddress string `json:"token_address"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for rugcheck lookup: %v", err), nil
	}
	address := strings.TrimSpace(input.TokenAddress)
	if address == "" {
		return "No token address provided.", nil
	}

	log.Printf("INFO: rugcheck token information lookup for: %s", address)

	requestURL := fmt.Sprintf("%s/v1/tokens/%s/report", t.baseURL, url.PathEscape(address))
	var report rugcheckReport
	if err := fetchJSON(ctx, t.client, requestURL, nil, &report); err != nil {
		return observation(ctx, fmt.Sprintf("Failed to get information for token %s. The token may not exist or the rugcheck service is unavailable.", address), err)
	}

	supply := "Unknown"
	if report.Token.Supply > 0 && report.Token.Decimals > 0 {
		supply = strconv.FormatFloat(report.Token.Supply/math.Pow10(report.Token.Decimals), 'f', 2, 64)
	}

	lines := []string{
		fmt.Sprintf("Token Information for %s (%s):", report.TokenMeta.Name, report.TokenMeta.Symbol),
		fmt.Sprintf("Contract Address: %s", address),
		fmt.Sprintf("Creator Address: %s", report.Creator),
		fmt.Sprintf("Creator Balance: %.2f tokens", report.CreatorBalance),
		fmt.Sprintf("Total Supply: %s tokens", supply),
		fmt.Sprintf("Decimals: %d", report.Token.Decimals),
		"",
		"Top Holders:",
	}
	for i, holder := range report.TopHolders {
		if i >= 10 {
			break
		}
		line := fmt.Sprintf("%d. Address: %s - %.2f tokens (%.2f%%)", i+1, holder.Address, holder.UIAmount, holder.Pct)
		if holder.Insider {
			line += " [INSIDER]"
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", fmt.Sprintf("Rugcheck Score: %.0f", report.Score))
	if len(report.Risks) > 0 {
		lines = append(lines, "Identified Risks:")
		for _, risk := range report.Risks {
			lines = append(lines, fmt.Sprintf("- %s: %s", risk.Name, risk.Description))
		}
	}
	return strings.Join(lines, "\n"), nil
}
