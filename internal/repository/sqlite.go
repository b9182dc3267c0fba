package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/solkit/solkit/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pubkey TEXT NOT NULL UNIQUE,
			premium_end DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pubkey TEXT NOT NULL,
			conversation_key TEXT NOT NULL,
			input_params TEXT,
			message TEXT,
			success INTEGER NOT NULL DEFAULT 0,
			response TEXT,
			verbose TEXT,
			input_token_count INTEGER,
			output_token_count INTEGER,
			total_token_count INTEGER,
			time DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_pubkey_time ON requests(pubkey, time)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_conversation ON requests(pubkey, conversation_key, time)`,
		`CREATE TABLE IF NOT EXISTS login_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pubkey TEXT NOT NULL,
			time DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pubkey TEXT NOT NULL,
			tx_hash TEXT NOT NULL,
			success INTEGER NOT NULL,
			time DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_hash ON transactions(tx_hash)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUser retrieves a user by public key.
func (s *SQLiteStore) GetUser(ctx context.Context, pubkey string) (*domain.User, error) {
	var user domain.User
	var premiumEnd sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, pubkey, premium_end FROM users WHERE pubkey = ?`,
		pubkey).Scan(&user.ID, &user.Pubkey, &premiumEnd)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if premiumEnd.Valid {
		user.PremiumEnd = &premiumEnd.Time
	}
	return &user, nil
}

// CreateUser creates a user row for a public key.
func (s *SQLiteStore) CreateUser(ctx context.Context, pubkey string) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (pubkey) VALUES (?)`, pubkey)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: id, Pubkey: pubkey}, nil
}

// GetOrCreateUser gets an existing user or creates a new one.
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, pubkey string) (*domain.User, error) {
	user, err := s.GetUser(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return s.CreateUser(ctx, pubkey)
}

// UpdatePremiumEnd sets the premium expiry for a user.
func (s *SQLiteStore) UpdatePremiumEnd(ctx context.Context, pubkey string, premiumEnd time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET premium_end = ? WHERE pubkey = ?`,
		premiumEnd, pubkey)
	return err
}

// CreateLoginLog appends a login record for a public key.
func (s *SQLiteStore) CreateLoginLog(ctx context.Context, pubkey string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO login_logs (pubkey, time) VALUES (?, ?)`,
		pubkey, time.Now().UTC())
	return err
}

// CreateTurn inserts a new conversation turn and fills in its id.
func (s *SQLiteStore) CreateTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.Time.IsZero() {
		turn.Time = time.Now().UTC()
	}
	var params sql.NullString
	if len(turn.InputParams) > 0 {
		params = sql.NullString{String: string(turn.InputParams), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (pubkey, conversation_key, input_params, message, success, response, verbose, time)
		 VALUES (?, ?, ?, ?, ?, NULL, NULL, ?)`,
		turn.Pubkey, turn.ConversationKey, params, turn.Message, turn.Success, turn.Time)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	turn.ID = id
	return nil
}

// GetTurn retrieves a turn by id.
func (s *SQLiteStore) GetTurn(ctx context.Context, id int64) (*domain.Turn, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pubkey, conversation_key, input_params, message, success, response, verbose,
		        input_token_count, output_token_count, total_token_count, time
		 FROM requests WHERE id = ?`, id)
	turn, err := scanTurn(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// UpdateTurnResponse writes the partial response text accumulated so far.
func (s *SQLiteStore) UpdateTurnResponse(ctx context.Context, id int64, response string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE requests SET response = ? WHERE id = ?`,
		response, id)
	return err
}

// UpdateTurnVerbose writes the captured execution trace for a turn.
func (s *SQLiteStore) UpdateTurnVerbose(ctx context.Context, id int64, verbose string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE requests SET verbose = ? WHERE id = ?`,
		verbose, id)
	return err
}

// FinalizeTurn commits the terminal state of a turn: response text,
// success flag and token counts, in a single update.
func (s *SQLiteStore) FinalizeTurn(ctx context.Context, id int64, response string, success bool, inputTokens, outputTokens, totalTokens int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE requests
		 SET response = ?, success = ?, input_token_count = ?, output_token_count = ?, total_token_count = ?
		 WHERE id = ?`,
		response, success, inputTokens, outputTokens, totalTokens, id)
	return err
}

// CountTurnsSince counts turns for a public key created at or after the
// given instant. Used for the daily quota window.
func (s *SQLiteStore) CountTurnsSince(ctx context.Context, pubkey string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE pubkey = ? AND time >= ?`,
		pubkey, since).Scan(&count)
	return count, err
}

// ConversationExists reports whether any turn exists for the given
// owner and conversation key.
func (s *SQLiteStore) ConversationExists(ctx context.Context, pubkey, conversationKey string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM requests WHERE pubkey = ? AND conversation_key = ? LIMIT 1`,
		pubkey, conversationKey).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListRecentTurns returns the most recent turns of a conversation,
// newest first, up to limit.
func (s *SQLiteStore) ListRecentTurns(ctx context.Context, pubkey, conversationKey string, limit int) ([]domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pubkey, conversation_key, input_params, message, success, response, verbose,
		        input_token_count, output_token_count, total_token_count, time
		 FROM requests
		 WHERE pubkey = ? AND conversation_key = ?
		 ORDER BY time DESC, id DESC
		 LIMIT ?`,
		pubkey, conversationKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTurns(rows)
}

// ListConversationTurns returns every turn of a conversation in
// chronological order.
func (s *SQLiteStore) ListConversationTurns(ctx context.Context, pubkey, conversationKey string) ([]domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pubkey, conversation_key, input_params, message, success, response, verbose,
		        input_token_count, output_token_count, total_token_count, time
		 FROM requests
		 WHERE pubkey = ? AND conversation_key = ?
		 ORDER BY time ASC, id ASC`,
		pubkey, conversationKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTurns(rows)
}

// ListLastConversations returns the latest turn of each of the user's
// most recently active conversations, newest first, up to limit.
func (s *SQLiteStore) ListLastConversations(ctx context.Context, pubkey string, limit int) ([]domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.pubkey, r.conversation_key, r.input_params, r.message, r.success, r.response, r.verbose,
		        r.input_token_count, r.output_token_count, r.total_token_count, r.time
		 FROM requests r
		 JOIN (
			SELECT conversation_key, MAX(id) AS latest_id
			FROM requests
			WHERE pubkey = ?
			GROUP BY conversation_key
		 ) latest ON r.id = latest.latest_id
		 ORDER BY r.time DESC, r.id DESC
		 LIMIT ?`,
		pubkey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTurns(rows)
}

// GetTransactionByHash retrieves a payment transaction by its hash.
func (s *SQLiteStore) GetTransactionByHash(ctx context.Context, txHash string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := s.db.QueryRowContext(ctx,
		`SELECT id, pubkey, tx_hash, success, time FROM transactions WHERE tx_hash = ? ORDER BY id DESC LIMIT 1`,
		txHash).Scan(&tx.ID, &tx.Pubkey, &tx.TxHash, &tx.Success, &tx.Time)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// CreateTransaction records a payment transaction attempt.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.Time.IsZero() {
		tx.Time = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (pubkey, tx_hash, success, time) VALUES (?, ?, ?, ?)`,
		tx.Pubkey, tx.TxHash, tx.Success, tx.Time)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTurn(row rowScanner) (*domain.Turn, error) {
	var turn domain.Turn
	var params, response, verbose sql.NullString
	var inTok, outTok, totalTok sql.NullInt64
	err := row.Scan(&turn.ID, &turn.Pubkey, &turn.ConversationKey, &params, &turn.Message,
		&turn.Success, &response, &verbose, &inTok, &outTok, &totalTok, &turn.Time)
	if err != nil {
		return nil, err
	}
	if params.Valid {
		turn.InputParams = []byte(params.String)
	}
	if response.Valid {
		turn.Response = response.String
	}
	if verbose.Valid {
		turn.Verbose = verbose.String
	}
	if inTok.Valid {
		v := int(inTok.Int64)
		turn.InputTokenCount = &v
	}
	if outTok.Valid {
		v := int(outTok.Int64)
		turn.OutputTokenCount = &v
	}
	if totalTok.Valid {
		v := int(totalTok.Int64)
		turn.TotalTokenCount = &v
	}
	return &turn, nil
}

func collectTurns(rows *sql.Rows) ([]domain.Turn, error) {
	var turns []domain.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, *turn)
	}
	return turns, rows.Err()
}
