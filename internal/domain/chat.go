package domain

import "time"

// DefaultModel is the baseline model available to every tier.
const DefaultModel = "gpt-4.1-mini"

// LightweightModelPrefix marks the restricted model family that runs in
// simplified conversational mode (no tool calling).
const LightweightModelPrefix = "sol-"

// SupportedModels is the closed set of model identifiers callers may request.
var SupportedModels = map[string]bool{
	"gpt-4.1":                      true,
	"gpt-4.1-mini":                 true,
	"gpt-4o":                       true,
	"anthropic/claude-3.7-sonnet":  true,
	"google/gemini-2.5-pro-preview": true,
	"meta-llama/llama-4-maverick":  true,
	"sol-70b":                      true,
	"sol-8b":                       true,
	"sol-deepseek-8b":              true,
}

// ChatRequest is the inbound payload for a streamed chat turn.
type ChatRequest struct {
	PublicKey       string   `json:"public_key"`
	Signature       string   `json:"signature"`
	AgentPublic     string   `json:"agent_public,omitempty"`
	AgentPrivate    string   `json:"agent_private,omitempty"`
	ConversationKey string   `json:"conversation_key,omitempty"`
	Message         string   `json:"message"`
	ModelName       string   `json:"model_name,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	Tools           []string `json:"tools,omitempty"`
}

// TurnParams is the resolved input-parameter snapshot persisted with a turn.
type TurnParams struct {
	PublicKey       string   `json:"public_key"`
	ConversationKey string   `json:"conversation_key"`
	Message         string   `json:"message"`
	ModelName       string   `json:"model_name"`
	Temperature     float64  `json:"temperature"`
	Tools           []string `json:"tools"`
}

// LastConversationsRequest asks for the most recent conversations.
type LastConversationsRequest struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// LastConversationsResponse lists up to five recent conversations.
type LastConversationsResponse struct {
	Success       bool                  `json:"success"`
	Conversations []ConversationSummary `json:"conversations"`
	Error         string                `json:"error,omitempty"`
}

// GetConversationRequest asks for the full history of one conversation.
type GetConversationRequest struct {
	PublicKey       string `json:"public_key"`
	Signature       string `json:"signature"`
	ConversationKey string `json:"conversation_key"`
}

// GetConversationResponse carries the ordered successful turns of a conversation.
type GetConversationResponse struct {
	Success         bool          `json:"success"`
	ConversationKey string        `json:"conversation_key"`
	Messages        []TurnMessage `json:"messages"`
	Error           string        `json:"error,omitempty"`
}

// UserAuthRequest is the login payload.
type UserAuthRequest struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// UserAuthResponse reports login success.
type UserAuthResponse struct {
	Success bool `json:"success"`
}

// ProStatusRequest asks for a user's entitlement.
type ProStatusRequest struct {
	PublicKey string `json:"public_key"`
}

// ProUpgradeRequest submits an on-chain payment for pro membership.
type ProUpgradeRequest struct {
	PublicKey            string `json:"public_key"`
	TransactionSignature string `json:"transaction_signature"`
}

// ProUpgradeResponse reports the outcome of a pro upgrade.
type ProUpgradeResponse struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	PremiumEndDate *time.Time `json:"premium_end_date"`
}

// WalletGenerationResponse carries a freshly generated agent wallet.
type WalletGenerationResponse struct {
	PublicKey           string `json:"public_key"`
	PrivateKey          string `json:"private_key"`
	EncryptedPrivateKey string `json:"encrypted_private_key"`
}
