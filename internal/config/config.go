// Package config provides configuration for the SolKit backend.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the backend configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Model backends
	OpenAIAPIKey     string
	OpenRouterAPIKey string
	InfyrAPIKey      string
	LLMTimeout       time.Duration

	// Chat pipeline
	FreeUserDailyLimit int
	ProUserDailyLimit  int
	FreeUserToolLimit  int
	PartialFlushChars  int
	MaxAgentSteps      int
	TurnTimeout        time.Duration
	ToolTimeout        time.Duration

	// Solana
	SolanaRPCURL string

	// Pro membership
	ProMembershipWallet string
	ProMembershipToken  string
	ProMembershipCost   int64

	// Wallet encryption
	WalletEncryptionSalt string

	// Toolkit APIs
	BirdeyeAPIKey string
	CMCAPIKey     string

	// Logging
	LogLevel string
}

// Load loads configuration from the environment, reading a .env file
// first if one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: failed to load .env: %v", err)
	}

	cfg := &Config{
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		DatabaseURL: getEnv("DATABASE_URL", "file:solkit.db?cache=shared&mode=rwc"),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		InfyrAPIKey:      getEnv("INFYR_API_KEY", ""),
		LLMTimeout:       time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,

		FreeUserDailyLimit: getEnvInt("FREE_USER_DAILY_LIMIT", 10),
		ProUserDailyLimit:  getEnvInt("PRO_USER_DAILY_LIMIT", 200),
		FreeUserToolLimit:  getEnvInt("FREE_USER_TOOL_LIMIT", 1),
		PartialFlushChars:  getEnvInt("PARTIAL_FLUSH_CHARS", 50),
		MaxAgentSteps:      getEnvInt("MAX_AGENT_STEPS", 6),
		TurnTimeout:        time.Duration(getEnvInt("TURN_TIMEOUT_MS", 300000)) * time.Millisecond,
		ToolTimeout:        time.Duration(getEnvInt("TOOL_TIMEOUT_MS", 60000)) * time.Millisecond,

		SolanaRPCURL: getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),

		ProMembershipWallet: getEnv("PRO_MEMBERSHIP_WALLET", ""),
		ProMembershipToken:  getEnv("PRO_MEMBERSHIP_TOKEN", ""),
		ProMembershipCost:   int64(getEnvInt("PRO_MEMBERSHIP_COST", 22000)),

		WalletEncryptionSalt: getEnv("WALLET_ENCRYPTION_SALT", "random_salt_value"),

		BirdeyeAPIKey: getEnv("BIRDEYE_API_KEY", ""),
		CMCAPIKey:     getEnv("CMC_API_KEY", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
