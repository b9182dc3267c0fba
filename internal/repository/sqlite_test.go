package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/solkit/solkit/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	user, err := store.GetUser(ctx, "pubkey1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected no user, got %+v", user)
	}

	user, err = store.GetOrCreateUser(ctx, "pubkey1")
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if user == nil || user.Pubkey != "pubkey1" || user.PremiumEnd != nil {
		t.Fatalf("unexpected user: %+v", user)
	}

	again, err := store.GetOrCreateUser(ctx, "pubkey1")
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected same user id %d, got %d", user.ID, again.ID)
	}

	end := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	if err := store.UpdatePremiumEnd(ctx, "pubkey1", end); err != nil {
		t.Fatalf("UpdatePremiumEnd failed: %v", err)
	}
	user, err = store.GetUser(ctx, "pubkey1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.PremiumEnd == nil || !user.PremiumEnd.Equal(end) {
		t.Fatalf("unexpected premium end: %v", user.PremiumEnd)
	}

	if err := store.CreateLoginLog(ctx, "pubkey1"); err != nil {
		t.Fatalf("CreateLoginLog failed: %v", err)
	}
}

func TestSQLiteStoreTurnLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	turn := &domain.Turn{
		Pubkey:          "pubkey1",
		ConversationKey: "abc123defg",
		InputParams:     json.RawMessage(`{"model_name":"gpt-4.1-mini"}`),
		Message:         "what is my portfolio worth?",
	}
	if err := store.CreateTurn(ctx, turn); err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}
	if turn.ID == 0 {
		t.Fatal("expected turn id to be set")
	}

	got, err := store.GetTurn(ctx, turn.ID)
	if err != nil {
		t.Fatalf("GetTurn failed: %v", err)
	}
	if got.Success {
		t.Fatal("new turn must not be marked successful")
	}
	if got.Response != "" || got.TotalTokenCount != nil {
		t.Fatalf("new turn must have empty response and no token counts: %+v", got)
	}

	if err := store.UpdateTurnResponse(ctx, turn.ID, "partial text"); err != nil {
		t.Fatalf("UpdateTurnResponse failed: %v", err)
	}
	got, _ = store.GetTurn(ctx, turn.ID)
	if got.Response != "partial text" {
		t.Fatalf("expected partial response persisted, got %q", got.Response)
	}
	if got.Success {
		t.Fatal("partial update must not mark the turn successful")
	}

	if err := store.UpdateTurnVerbose(ctx, turn.ID, "step 1: model call"); err != nil {
		t.Fatalf("UpdateTurnVerbose failed: %v", err)
	}

	if err := store.FinalizeTurn(ctx, turn.ID, "full answer", true, 12, 34, 46); err != nil {
		t.Fatalf("FinalizeTurn failed: %v", err)
	}
	got, _ = store.GetTurn(ctx, turn.ID)
	if !got.Success || got.Response != "full answer" {
		t.Fatalf("unexpected finalized turn: %+v", got)
	}
	if got.InputTokenCount == nil || *got.InputTokenCount != 12 ||
		got.OutputTokenCount == nil || *got.OutputTokenCount != 34 ||
		got.TotalTokenCount == nil || *got.TotalTokenCount != 46 {
		t.Fatalf("unexpected token counts: %+v", got)
	}
	if got.Verbose != "step 1: model call" {
		t.Fatalf("expected verbose trace preserved, got %q", got.Verbose)
	}
}

func TestSQLiteStoreQuotaWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for i, ts := range []time.Time{yesterday, now.Add(-time.Hour), now} {
		turn := &domain.Turn{Pubkey: "pubkey1", ConversationKey: "abc123defg", Message: "m", Time: ts}
		if err := store.CreateTurn(ctx, turn); err != nil {
			t.Fatalf("CreateTurn %d failed: %v", i, err)
		}
	}
	// A different user's turns must not count.
	other := &domain.Turn{Pubkey: "pubkey2", ConversationKey: "zzz999zzzz", Message: "m", Time: now}
	if err := store.CreateTurn(ctx, other); err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}

	count, err := store.CountTurnsSince(ctx, "pubkey1", midnight)
	if err != nil {
		t.Fatalf("CountTurnsSince failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 turns since midnight, got %d", count)
	}
}

func TestSQLiteStoreConversations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	base := time.Now().UTC().Add(-time.Hour)
	seed := func(pubkey, key, message string, offset time.Duration, success bool) {
		turn := &domain.Turn{Pubkey: pubkey, ConversationKey: key, Message: message, Time: base.Add(offset)}
		if err := store.CreateTurn(ctx, turn); err != nil {
			t.Fatalf("CreateTurn failed: %v", err)
		}
		if success {
			if err := store.FinalizeTurn(ctx, turn.ID, "reply to "+message, true, 1, 2, 3); err != nil {
				t.Fatalf("FinalizeTurn failed: %v", err)
			}
		}
	}

	seed("pubkey1", "conv1conv1", "first", 0, true)
	seed("pubkey1", "conv1conv1", "second", time.Minute, false)
	seed("pubkey1", "conv1conv1", "third", 2*time.Minute, true)
	seed("pubkey1", "conv2conv2", "other topic", 3*time.Minute, true)
	seed("pubkey2", "conv3conv3", "not mine", 4*time.Minute, true)

	exists, err := store.ConversationExists(ctx, "pubkey1", "conv1conv1")
	if err != nil || !exists {
		t.Fatalf("expected conversation to exist, got %v, %v", exists, err)
	}
	exists, err = store.ConversationExists(ctx, "pubkey2", "conv1conv1")
	if err != nil || exists {
		t.Fatalf("conversation must be scoped to its owner, got %v, %v", exists, err)
	}

	recent, err := store.ListRecentTurns(ctx, "pubkey1", "conv1conv1", 2)
	if err != nil {
		t.Fatalf("ListRecentTurns failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Message != "third" || recent[1].Message != "second" {
		t.Fatalf("unexpected recent turns: %+v", recent)
	}

	all, err := store.ListConversationTurns(ctx, "pubkey1", "conv1conv1")
	if err != nil {
		t.Fatalf("ListConversationTurns failed: %v", err)
	}
	if len(all) != 3 || all[0].Message != "first" || all[2].Message != "third" {
		t.Fatalf("expected chronological order, got %+v", all)
	}

	last, err := store.ListLastConversations(ctx, "pubkey1", 5)
	if err != nil {
		t.Fatalf("ListLastConversations failed: %v", err)
	}
	if len(last) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(last))
	}
	if last[0].ConversationKey != "conv2conv2" || last[1].ConversationKey != "conv1conv1" {
		t.Fatalf("expected newest conversation first, got %+v", last)
	}
	if last[1].Message != "third" {
		t.Fatalf("expected latest turn of conversation, got %q", last[1].Message)
	}
}

func TestSQLiteStoreTransactions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	tx, err := store.GetTransactionByHash(ctx, "sig123")
	if err != nil {
		t.Fatalf("GetTransactionByHash failed: %v", err)
	}
	if tx != nil {
		t.Fatalf("expected no transaction, got %+v", tx)
	}

	created := &domain.Transaction{Pubkey: "pubkey1", TxHash: "sig123", Success: true}
	if err := store.CreateTransaction(ctx, created); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected transaction id to be set")
	}

	tx, err = store.GetTransactionByHash(ctx, "sig123")
	if err != nil {
		t.Fatalf("GetTransactionByHash failed: %v", err)
	}
	if tx == nil || tx.Pubkey != "pubkey1" || !tx.Success {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
}
