// Package store defines the storage interface and implementations.
package store

import (
	"context"
	"time"

	"github.com/solkit/solkit/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// User operations
	GetUser(ctx context.Context, pubkey string) (*domain.User, error)
	CreateUser(ctx context.Context, pubkey string) (*domain.User, error)
	GetOrCreateUser(ctx context.Context, pubkey string) (*domain.User, error)
	UpdatePremiumEnd(ctx context.Context, pubkey string, premiumEnd time.Time) error
	CreateLoginLog(ctx context.Context, pubkey string) error

	// Turn operations
	CreateTurn(ctx context.Context, turn *domain.Turn) error
	GetTurn(ctx context.Context, id int64) (*domain.Turn, error)
	UpdateTurnResponse(ctx context.Context, id int64, response string) error
	UpdateTurnVerbose(ctx context.Context, id int64, verbose string) error
	FinalizeTurn(ctx context.Context, id int64, response string, success bool, inputTokens, outputTokens, totalTokens int) error
	CountTurnsSince(ctx context.Context, pubkey string, since time.Time) (int, error)

	// Conversation operations
	ConversationExists(ctx context.Context, pubkey, conversationKey string) (bool, error)
	ListRecentTurns(ctx context.Context, pubkey, conversationKey string, limit int) ([]domain.Turn, error)
	ListConversationTurns(ctx context.Context, pubkey, conversationKey string) ([]domain.Turn, error)
	ListLastConversations(ctx context.Context, pubkey string, limit int) ([]domain.Turn, error)

	// Transaction operations
	GetTransactionByHash(ctx context.Context, txHash string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error

	Close() error
}
