// Package domain defines the core domain models for the SolKit backend.
package domain

import (
	"encoding/json"
	"time"
)

// User is a wallet-holder identified by their Solana public key.
// PremiumEnd in the past (or unset) means the user is on the free tier.
type User struct {
	ID         int64      `json:"id"`
	Pubkey     string     `json:"pubkey"`
	PremiumEnd *time.Time `json:"premium_end,omitempty"`
}

// Turn is one durable request/response exchange. It is created before
// generation starts (Success=false, Response empty) and is the single
// mutable record updated throughout generation.
type Turn struct {
	ID               int64           `json:"id"`
	Pubkey           string          `json:"pubkey"`
	ConversationKey  string          `json:"conversation_key"`
	InputParams      json.RawMessage `json:"input_params,omitempty"`
	Message          string          `json:"message"`
	Success          bool            `json:"success"`
	Response         string          `json:"response,omitempty"`
	Verbose          string          `json:"verbose,omitempty"`
	InputTokenCount  *int            `json:"input_token_count,omitempty"`
	OutputTokenCount *int            `json:"output_token_count,omitempty"`
	TotalTokenCount  *int            `json:"total_token_count,omitempty"`
	Time             time.Time       `json:"time"`
}

// LoginLog records one successful signature login.
type LoginLog struct {
	ID     int64     `json:"id"`
	Pubkey string    `json:"pubkey"`
	Time   time.Time `json:"time"`
}

// Transaction records a pro-upgrade payment attempt keyed by its
// on-chain transaction hash.
type Transaction struct {
	ID      int64     `json:"id"`
	Pubkey  string    `json:"pubkey"`
	TxHash  string    `json:"tx_hash"`
	Success bool      `json:"success"`
	Time    time.Time `json:"time"`
}

// ProStatus is the resolved entitlement for a user.
type ProStatus struct {
	IsPro         bool `json:"is_pro"`
	DaysRemaining *int `json:"days_remaining"`
}

// ConversationSummary is one entry in the recent-conversations listing.
type ConversationSummary struct {
	ConversationKey    string    `json:"conversation_key"`
	LastMessagePreview string    `json:"last_message_preview"`
	Timestamp          time.Time `json:"timestamp"`
}

// TurnMessage is one successful exchange in a conversation history.
type TurnMessage struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}
