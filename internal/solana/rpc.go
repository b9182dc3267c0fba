// Package solana is a minimal JSON-RPC client for the queries the
// service needs: balances, token accounts and payment verification.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const tokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// Client talks to a Solana RPC endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client

	// MaxRetries bounds getTransaction attempts; freshly confirmed
	// transactions can take a few seconds to become queryable.
	MaxRetries int
	// RetryDelay is the initial backoff between attempts. It grows by
	// half each retry, capped at five times the initial value.
	RetryDelay time.Duration
}

// NewClient creates a client for the given RPC endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		MaxRetries: 5,
		RetryDelay: 2 * time.Second,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a single JSON-RPC request.
func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("RPC endpoint returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}
	return nil
}

// TokenAmount mirrors the RPC uiTokenAmount object.
type TokenAmount struct {
	Amount   string   `json:"amount"`
	Decimals int      `json:"decimals"`
	UIAmount *float64 `json:"uiAmount"`
}

// TokenBalance is one entry of pre/postTokenBalances.
type TokenBalance struct {
	AccountIndex  int         `json:"accountIndex"`
	Mint          string      `json:"mint"`
	Owner         string      `json:"owner"`
	UITokenAmount TokenAmount `json:"uiTokenAmount"`
}

// TransactionMeta is the metadata of a confirmed transaction.
type TransactionMeta struct {
	Err               interface{}    `json:"err"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances"`
}

// Transaction is the result of getTransaction.
type Transaction struct {
	Meta      *TransactionMeta `json:"meta"`
	BlockTime *int64           `json:"blockTime"`
}

// GetTransaction retrieves a confirmed transaction, retrying with
// backoff while the transaction is not yet queryable.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"maxSupportedTransactionVersion": 0,
			"commitment":                     "confirmed",
		},
	}

	delay := c.RetryDelay
	maxDelay := 5 * c.RetryDelay
	var lastErr error

	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		log.Printf("INFO: retrieving transaction %s (attempt %d)", signature, attempt)

		var tx *Transaction
		err := c.call(ctx, "getTransaction", params, &tx)
		switch {
		case err == nil && tx != nil:
			if tx.Meta != nil && tx.Meta.Err != nil {
				return nil, fmt.Errorf("transaction failed: %v", tx.Meta.Err)
			}
			return tx, nil
		case err == nil:
			// Not queryable yet.
			lastErr = fmt.Errorf("transaction not found")
		case isNotFound(err):
			log.Printf("WARN: transaction %s not found yet, retrying", signature)
			lastErr = err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			log.Printf("ERROR: failed to retrieve transaction %s: %v", signature, err)
			lastErr = err
		}

		if attempt == c.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = delay * 3 / 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return nil, fmt.Errorf("failed to retrieve transaction after %d attempts: %w", c.MaxRetries, lastErr)
}

func isNotFound(err error) bool {
	var rpcErr *rpcError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == -32602 || strings.Contains(strings.ToLower(rpcErr.Message), "not found")
	}
	return false
}

// VerifyTokenTransfer checks that the transaction credited the
// recipient with at least expectedAmount raw units of the given mint.
// A nil return means the transfer is verified.
func (c *Client) VerifyTokenTransfer(ctx context.Context, signature, mint, recipient string, expectedAmount uint64) error {
	tx, err := c.GetTransaction(ctx, signature)
	if err != nil {
		return err
	}
	if tx.Meta == nil {
		return fmt.Errorf("transaction metadata missing")
	}
	if len(tx.Meta.PostTokenBalances) == 0 {
		return fmt.Errorf("no token balances found in transaction")
	}

	preByIndex := make(map[int]uint64, len(tx.Meta.PreTokenBalances))
	for _, balance := range tx.Meta.PreTokenBalances {
		amount, _ := strconv.ParseUint(balance.UITokenAmount.Amount, 10, 64)
		preByIndex[balance.AccountIndex] = amount
	}

	for _, balance := range tx.Meta.PostTokenBalances {
		if balance.Mint != mint || balance.Owner != recipient {
			continue
		}
		postAmount, err := strconv.ParseUint(balance.UITokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		change := int64(postAmount) - int64(preByIndex[balance.AccountIndex])
		if change >= int64(expectedAmount) {
			log.Printf("INFO: verified token transfer of %d units to %s", change, recipient)
			return nil
		}
	}

	return fmt.Errorf("no matching token transfer found")
}

// GetBalance returns the SOL balance of an address in lamports.
func (c *Client) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []interface{}{pubkey}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// TokenHolding is one SPL token balance of a wallet.
type TokenHolding struct {
	Mint     string
	UIAmount float64
	Decimals int
}

// GetTokenAccountsByOwner lists the SPL token balances of a wallet.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenHolding, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{"programId": tokenProgramID},
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string      `json:"mint"`
							TokenAmount TokenAmount `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	holdings := make([]TokenHolding, 0, len(result.Value))
	for _, entry := range result.Value {
		info := entry.Account.Data.Parsed.Info
		amount := 0.0
		if info.TokenAmount.UIAmount != nil {
			amount = *info.TokenAmount.UIAmount
		}
		holdings = append(holdings, TokenHolding{
			Mint:     info.Mint,
			UIAmount: amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return holdings, nil
}
