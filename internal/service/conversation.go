package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"

	"github.com/solkit/solkit/internal/auth"
	"github.com/solkit/solkit/internal/domain"
)

const (
	conversationKeyLength = 10
	conversationKeyChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	lastConversationsLimit = 5
	messagePreviewChars    = 50

	// historyTurns is how many prior exchanges are replayed to the model.
	historyTurns = 4
)

// newConversationKey mints a random conversation identifier.
func newConversationKey() string {
	buf := make([]byte, conversationKeyLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = conversationKeyChars[int(b)%len(conversationKeyChars)]
	}
	return string(buf)
}

// resolveConversationKey returns the key to record this turn under. A
// requested key is honored only when it already belongs to the caller;
// anything else is silently replaced with a fresh key, so a stale or
// foreign key starts a new conversation instead of failing the request.
func (s *Service) resolveConversationKey(ctx context.Context, pubkey, requested string) (string, error) {
	if requested != "" {
		exists, err := s.store.ConversationExists(ctx, pubkey, requested)
		if err != nil {
			return "", fmt.Errorf("failed to check conversation: %w", err)
		}
		if exists {
			return requested, nil
		}
		log.Printf("WARN: conversation %s not found for %s, starting a new one", requested, pubkey)
	}
	return newConversationKey(), nil
}

// conversationHistory returns the most recent prior exchanges in
// chronological order, ready to replay to the model.
func (s *Service) conversationHistory(ctx context.Context, pubkey, conversationKey string) ([]domain.Turn, error) {
	turns, err := s.store.ListRecentTurns(ctx, pubkey, conversationKey, historyTurns)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}
	// ListRecentTurns returns newest first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// LastConversations lists the caller's most recent conversations with a
// preview of the latest message in each.
func (s *Service) LastConversations(ctx context.Context, req domain.LastConversationsRequest) (*domain.LastConversationsResponse, error) {
	if !auth.VerifySignature(req.PublicKey, req.Signature) {
		return &domain.LastConversationsResponse{
			Success:       false,
			Conversations: []domain.ConversationSummary{},
			Error:         "Authentication failed, please relogin and try again.",
		}, nil
	}

	turns, err := s.store.ListLastConversations(ctx, req.PublicKey, lastConversationsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]domain.ConversationSummary, 0, len(turns))
	for _, t := range turns {
		preview := previewOf(t.Message)
		summaries = append(summaries, domain.ConversationSummary{
			ConversationKey:    t.ConversationKey,
			LastMessagePreview: preview,
			Timestamp:          t.Time,
		})
	}
	return &domain.LastConversationsResponse{Success: true, Conversations: summaries}, nil
}

// previewOf shortens a message to its first 50 characters. Truncation
// counts characters rather than bytes so multibyte text stays intact.
func previewOf(message string) string {
	runes := []rune(message)
	if len(runes) <= messagePreviewChars {
		return message
	}
	return string(runes[:messagePreviewChars]) + "..."
}

// GetConversation returns the full history of one conversation in
// chronological order. Only successful turns are included; failed or
// still-streaming turns never appear in the transcript.
func (s *Service) GetConversation(ctx context.Context, req domain.GetConversationRequest) (*domain.GetConversationResponse, error) {
	if !auth.VerifySignature(req.PublicKey, req.Signature) {
		return &domain.GetConversationResponse{
			Success:         false,
			ConversationKey: req.ConversationKey,
			Messages:        []domain.TurnMessage{},
			Error:           "Authentication failed, please relogin and try again.",
		}, nil
	}

	exists, err := s.store.ConversationExists(ctx, req.PublicKey, req.ConversationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check conversation: %w", err)
	}
	if !exists {
		return &domain.GetConversationResponse{
			Success:         false,
			ConversationKey: req.ConversationKey,
			Messages:        []domain.TurnMessage{},
			Error:           "Conversation not found",
		}, nil
	}

	turns, err := s.store.ListConversationTurns(ctx, req.PublicKey, req.ConversationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	messages := make([]domain.TurnMessage, 0, len(turns))
	for _, t := range turns {
		if !t.Success {
			continue
		}
		messages = append(messages, domain.TurnMessage{
			ID:        t.ID,
			Message:   t.Message,
			Response:  t.Response,
			Timestamp: t.Time,
		})
	}
	return &domain.GetConversationResponse{
		Success:         true,
		ConversationKey: req.ConversationKey,
		Messages:        messages,
	}, nil
}
