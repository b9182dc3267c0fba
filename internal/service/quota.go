package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/solkit/solkit/internal/domain"
)

// checkQuota enforces the daily turn allowance. The window resets at
// UTC midnight; every recorded turn counts against it, including
// failed ones, so retry storms cannot bypass the limit.
func (s *Service) checkQuota(ctx context.Context, pubkey string, isPro bool) error {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.store.CountTurnsSince(ctx, pubkey, midnight)
	if err != nil {
		return fmt.Errorf("failed to count turns: %w", err)
	}

	limit := s.config.FreeUserDailyLimit
	message := "You've reached today's message limit. Upgrade to Pro for more access."
	if isPro {
		limit = s.config.ProUserDailyLimit
		message = "You've hit today's message limit. It will reset automatically tomorrow."
	}

	if count >= limit {
		log.Printf("WARN: user %s exceeded daily limit (%d/%d, pro=%v)", pubkey, count, limit, isPro)
		return clientErr(domain.ErrRateLimit, message)
	}
	return nil
}
