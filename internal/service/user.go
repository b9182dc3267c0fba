package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/solkit/solkit/internal/auth"
	"github.com/solkit/solkit/internal/domain"
	"github.com/solkit/solkit/internal/wallet"
)

const premiumDays = 30

// Login verifies the wallet signature, creates the user on first login
// and records a login log entry.
func (s *Service) Login(ctx context.Context, req domain.UserAuthRequest) (bool, error) {
	if !auth.VerifySignature(req.PublicKey, req.Signature) {
		log.Printf("WARN: login signature verification failed for %s", req.PublicKey)
		return false, nil
	}

	if _, err := s.store.GetOrCreateUser(ctx, req.PublicKey); err != nil {
		return false, fmt.Errorf("failed to get/create user: %w", err)
	}

	if err := s.store.CreateLoginLog(ctx, req.PublicKey); err != nil {
		// Login still succeeds; the log is advisory.
		log.Printf("ERROR: failed to record login log for %s: %v", req.PublicKey, err)
	}

	log.Printf("INFO: user %s logged in", req.PublicKey)
	return true, nil
}

// ProStatus resolves the user's entitlement. Unknown users and expired
// memberships are reported as free tier, never as an error.
func (s *Service) ProStatus(ctx context.Context, pubkey string) (domain.ProStatus, error) {
	user, err := s.store.GetUser(ctx, pubkey)
	if err != nil {
		return domain.ProStatus{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || user.PremiumEnd == nil {
		return domain.ProStatus{IsPro: false}, nil
	}

	now := time.Now().UTC()
	if !user.PremiumEnd.After(now) {
		return domain.ProStatus{IsPro: false}, nil
	}

	days := int(user.PremiumEnd.Sub(now).Hours() / 24)
	return domain.ProStatus{IsPro: true, DaysRemaining: &days}, nil
}

// UpgradePro validates an on-chain membership payment and extends the
// user's premium period by 30 days. The transaction hash is the
// idempotency key: a hash that already succeeded is acknowledged
// without granting additional time.
func (s *Service) UpgradePro(ctx context.Context, req domain.ProUpgradeRequest) (*domain.ProUpgradeResponse, error) {
	user, err := s.store.GetOrCreateUser(ctx, req.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create user: %w", err)
	}

	existing, err := s.store.GetTransactionByHash(ctx, req.TransactionSignature)
	if err != nil {
		return nil, fmt.Errorf("failed to check transaction: %w", err)
	}
	if existing != nil && existing.Success {
		log.Printf("INFO: transaction %s already processed", req.TransactionSignature)
		return &domain.ProUpgradeResponse{
			Success:        true,
			Message:        "Transaction was already processed",
			PremiumEndDate: user.PremiumEnd,
		}, nil
	}

	verifyErr := s.rpc.VerifyTokenTransfer(ctx,
		req.TransactionSignature,
		s.config.ProMembershipToken,
		s.config.ProMembershipWallet,
		uint64(s.config.ProMembershipCost),
	)

	tx := &domain.Transaction{
		Pubkey:  req.PublicKey,
		TxHash:  req.TransactionSignature,
		Success: verifyErr == nil,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		log.Printf("ERROR: failed to record transaction %s: %v", req.TransactionSignature, err)
	}

	if verifyErr != nil {
		log.Printf("WARN: transaction validation failed for %s: %v", req.TransactionSignature, verifyErr)
		return &domain.ProUpgradeResponse{
			Success: false,
			Message: verifyErr.Error(),
		}, nil
	}

	now := time.Now().UTC()
	var premiumEnd time.Time
	if user.PremiumEnd != nil && user.PremiumEnd.After(now) {
		premiumEnd = user.PremiumEnd.Add(premiumDays * 24 * time.Hour)
	} else {
		premiumEnd = now.Add(premiumDays * 24 * time.Hour)
	}
	if err := s.store.UpdatePremiumEnd(ctx, req.PublicKey, premiumEnd); err != nil {
		return nil, fmt.Errorf("failed to update premium end: %w", err)
	}

	log.Printf("INFO: pro upgrade successful for %s, premium ends %s", req.PublicKey, premiumEnd.Format(time.RFC3339))
	return &domain.ProUpgradeResponse{
		Success:        true,
		Message:        "Pro membership activated successfully",
		PremiumEndDate: &premiumEnd,
	}, nil
}

// GenerateWallet mints a fresh agent wallet. Nothing is persisted; the
// caller holds the only copy of the private key.
func (s *Service) GenerateWallet() (*domain.WalletGenerationResponse, error) {
	w, err := wallet.Generate(s.config.WalletEncryptionSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet: %w", err)
	}
	return &domain.WalletGenerationResponse{
		PublicKey:           w.PublicKey,
		PrivateKey:          w.PrivateKey,
		EncryptedPrivateKey: w.EncryptedPrivateKey,
	}, nil
}
