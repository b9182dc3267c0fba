package llm

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/solkit/solkit/internal/domain"
)

// Backend names.
const (
	BackendOpenAI     = "openai"
	BackendInfyr      = "infyr"
	BackendOpenRouter = "openrouter"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	infyrBaseURL      = "https://api.infyr.ai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	// Lightweight models are served with a hard completion cap.
	lightweightMaxTokens = 4096

	defaultTemperature = 0.7
)

const (
	// EnvSolKitMode is the environment variable name for mode selection.
	EnvSolKitMode = "SOLKIT_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// Backend describes the provider that serves a model.
type Backend struct {
	Name    string
	BaseURL string
	APIKey  string
	// MaxTokens, when set, caps the completion length for this backend.
	MaxTokens *int
	// ToolsEnabled reports whether the backend supports tool calling.
	ToolsEnabled bool
}

// Router resolves model names to provider backends and holds one
// client per backend.
type Router struct {
	openAIKey     string
	openRouterKey string
	infyrKey      string
	timeout       time.Duration

	mu      sync.Mutex
	clients map[string]LLMClient
}

// NewRouter creates a router over the configured provider credentials.
func NewRouter(openAIKey, openRouterKey, infyrKey string, timeout time.Duration) *Router {
	return &Router{
		openAIKey:     openAIKey,
		openRouterKey: openRouterKey,
		infyrKey:      infyrKey,
		timeout:       timeout,
		clients:       make(map[string]LLMClient),
	}
}

// Resolve maps a model name to its backend. Models containing "gpt" go
// to OpenAI, the lightweight family goes to its dedicated provider with
// tool calling disabled, everything else goes through OpenRouter.
func (r *Router) Resolve(modelName string) Backend {
	switch {
	case strings.Contains(modelName, "gpt"):
		return Backend{
			Name:         BackendOpenAI,
			BaseURL:      openAIBaseURL,
			APIKey:       r.openAIKey,
			ToolsEnabled: true,
		}
	case strings.HasPrefix(modelName, domain.LightweightModelPrefix):
		maxTokens := lightweightMaxTokens
		return Backend{
			Name:         BackendInfyr,
			BaseURL:      infyrBaseURL,
			APIKey:       r.infyrKey,
			MaxTokens:    &maxTokens,
			ToolsEnabled: false,
		}
	default:
		return Backend{
			Name:         BackendOpenRouter,
			BaseURL:      openRouterBaseURL,
			APIKey:       r.openRouterKey,
			ToolsEnabled: true,
		}
	}
}

// ClientFor returns the client for a backend, creating it on first use.
// If SOLKIT_MODE=MOCK, a mock client is returned instead.
func (r *Router) ClientFor(backend Backend) LLMClient {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[backend.Name]; ok {
		return client
	}

	var client LLMClient
	if os.Getenv(EnvSolKitMode) == ModeMock {
		log.Println("INFO: SOLKIT_MODE=MOCK detected, using mock LLM client")
		client = NewMockClient()
	} else {
		client = NewClient(backend.BaseURL, backend.APIKey, r.timeout)
	}
	r.clients[backend.Name] = client
	return client
}

// NormalizeTemperature clamps the sampling temperature to [0, 1],
// substituting the default when absent or out of range.
func NormalizeTemperature(t *float64) float64 {
	if t == nil {
		return defaultTemperature
	}
	if *t < 0 || *t > 1 {
		log.Printf("WARN: temperature %v out of range, using default %v", *t, defaultTemperature)
		return defaultTemperature
	}
	return *t
}
