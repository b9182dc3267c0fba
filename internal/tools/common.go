package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/solkit/solkit/internal/solana"
)

// WalletPortfolioTool lists the tokens held in the user's agent wallet.
type WalletPortfolioTool struct {
	rpc *solana.Client
}

// NewWalletPortfolioTool creates the wallet portfolio tool.
func NewWalletPortfolioTool(rpc *solana.Client) *WalletPortfolioTool {
	return &WalletPortfolioTool{rpc: rpc}
}

func (t *WalletPortfolioTool) Name() string { return "wallet_portfolio_tool" }

func (t *WalletPortfolioTool) Description() string {
	return "Get detailed information about all tokens, their contract address, held in a wallet. [HIGHEST PRIORITY, SHOULD BE USED IN PLACE: 1]"
}

func (t *WalletPortfolioTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"agent_public": stringParam("The public key of the wallet to check"),
	})
}

func (t *WalletPortfolioTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		AgentPublic string `json:"agent_public"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for wallet portfolio lookup: %v", err), nil
	}
	if input.AgentPublic == "" {
		log.Println("INFO: wallet portfolio tool called without a wallet address")
		return "User has not added a wallet yet.", nil
	}

	log.Printf("INFO: fetching wallet portfolio for address: %s", input.AgentPublic)

	lamports, err := t.rpc.GetBalance(ctx, input.AgentPublic)
	if err != nil {
		return observation(ctx, "There is an error while getting the user's balances.", err)
	}
	holdings, err := t.rpc.GetTokenAccountsByOwner(ctx, input.AgentPublic)
	if err != nil {
		return observation(ctx, "There is an error while getting the user's balances.", err)
	}

	sol := float64(lamports) / 1e9
	if sol == 0 && len(holdings) == 0 {
		return "User has no SOL balance, 0.", nil
	}

	lines := []string{
		fmt.Sprintf("Wallet Portfolio for %s:", input.AgentPublic),
		fmt.Sprintf("• SOL: %.4f", sol),
	}
	for _, holding := range holdings {
		if holding.UIAmount == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("• Token %s: %.4f tokens", holding.Mint, holding.UIAmount))
	}
	return strings.Join(lines, "\n"), nil
}

// TokenIdentificationTool resolves token names and tickers to contract
// addresses from a curated table of well-known Solana tokens.
type TokenIdentificationTool struct{}

// NewTokenIdentificationTool creates the token identification tool.
func NewTokenIdentificationTool() *TokenIdentificationTool {
	return &TokenIdentificationTool{}
}

func (t *TokenIdentificationTool) Name() string { return "token_identification_tool" }

func (t *TokenIdentificationTool) Description() string {
	return "Get token information by name or ticker symbol. Use this to find contract addresses for tokens. [HIGHEST PRIORITY, SHOULD BE USED IN PLACE: 2]"
}

func (t *TokenIdentificationTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"identifier": stringParam("The token name or ticker to search for (e.g., 'Raydium', 'RAY', '$RAY')"),
	}, "identifier")
}

type knownToken struct {
	Name    string
	Ticker  string
	Address string
}

var knownTokens = []knownToken{
	{"Tether", "USDT", "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"},
	{"USDC", "USDC", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
	{"USDS", "USDS", "USDSwr9ApdHk5bvJKMjzff41FfuX8bSxdKcR81vTwcA"},
	{"Coinbase Wrapped BTC", "cbBTC", "cbbtcf3aa214zXHbiAZQwf4122FBYbraNdFqgw4iMij"},
	{"Official Trump", "TRUMP", "6p6xgHyF7AeE6TZkSmFsko444wqoP15icUSqi2jfGiPN"},
	{"Render", "RENDER", "rndrizKT3MK1iimdxRdWabcF7Zg7AR5T4nud4EkHBof"},
	{"Bonk", "Bonk", "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"},
	{"Fartcoin", "Fartcoin", "9BB6NFEcjBCtnNLFko2FqVQBq8HHM13kCyYcdQbgpump"},
	{"PayPal USD", "PYUSD", "2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo"},
	{"Jupiter Staked SOL", "JupSOL", "jupSoLaHXQiZZTSfEWMTRRgpnyFm8f6sZdosWBjx93v"},
	{"Marinade Staked SOL", "mSOL", "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"},
	{"Raydium", "RAY", "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"},
	{"Helium", "HNT", "hntyVP6YFm1Hg25TN9WGLqM12b8TQmcknKrdu1oxWux"},
	{"Jito", "JTO", "jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL"},
	{"Pyth Network", "PYTH", "HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3"},
	{"dogwifhat", "WIF", "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"},
	{"SPX6900", "SPX", "J3NKxxXZcnNiMjKw9hYb2K4LUxgwB6t1FtPtQVsv3KFr"},
	{"Grass", "GRASS", "Grass7B4RdKfBCjTKgSqnXkqjwiGvQyFbuSCUJr3XXjs"},
	{"Pudgy Penguins", "PENGU", "2zMMhcVQEXDtdE6vsFS7S7D5oUodfJHE8vd1gnBouauv"},
	{"Wormhole", "W", "85VBFQZC9TZkfaptBWjvUw7YbZjy52A6mjtPGjstQAmQ"},
	{"Popcat", "POPCAT", "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"},
	{"cat in a dogs world", "MEW", "MEW1gQWJ3nEXg2qgERiKu7FAFj79PHvQVREQUzScPP5"},
	{"ai16z", "ai16z", "HeLp6NuQkmYB4pYWo2zYs22mESHXPQYzXbB8n4V98jwC"},
	{"Gigachad", "GIGA", "63LfDmNb3MQ8mw9MtZ2To9bEA2M71kZUUGq5tiJxcqj9"},
	{"Goatseus Maximus", "GOAT", "CzLSujWBLFsSjncfkh59rUFqvafWcY5tzedWJSuypump"},
	{"Melania Meme", "MELANIA", "FUAfBo2jgks6gB4Z4LfZkqSZgzNucisEHqnNebaRxM1P"},
}

func (t *TokenIdentificationTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Identifier string `json:"identifier"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments for token identification: %v", err), nil
	}

	query := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(input.Identifier), "$"))
	if query == "" {
		return "Please provide a token name or ticker to look up.", nil
	}

	for _, token := range knownTokens {
		if strings.ToLower(token.Name) == query || strings.ToLower(token.Ticker) == query {
			return fmt.Sprintf("Token: %s (%s)\nContract Address: %s", token.Name, token.Ticker, token.Address), nil
		}
	}

	// Fall back to substring matching on names.
	for _, token := range knownTokens {
		if strings.Contains(strings.ToLower(token.Name), query) {
			return fmt.Sprintf("Token: %s (%s)\nContract Address: %s", token.Name, token.Ticker, token.Address), nil
		}
	}

	return fmt.Sprintf("No token found matching %q. Try a contract address with another tool instead.", input.Identifier), nil
}
