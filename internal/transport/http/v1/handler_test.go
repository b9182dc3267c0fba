package v1_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solkit/solkit/internal/adapter/llm"
	"github.com/solkit/solkit/internal/auth"
	"github.com/solkit/solkit/internal/config"
	"github.com/solkit/solkit/internal/policy"
	store "github.com/solkit/solkit/internal/repository"
	"github.com/solkit/solkit/internal/service"
	"github.com/solkit/solkit/internal/solana"
	"github.com/solkit/solkit/internal/tokenizer"
	"github.com/solkit/solkit/internal/tools"
	httpserver "github.com/solkit/solkit/internal/transport/http"
)

// scriptedClient streams fixed text for every completion request.
type scriptedClient struct {
	text []string
}

func (c *scriptedClient) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return nil, fmt.Errorf("unexpected non-streaming call")
}

func (c *scriptedClient) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, callback llm.StreamCallback) (*llm.Usage, error) {
	for _, text := range c.text {
		chunk := &llm.StreamChunk{Choices: []llm.Choice{{Delta: &llm.ChatMessage{Content: text}}}}
		if err := callback(chunk); err != nil {
			return nil, err
		}
	}
	return &llm.Usage{}, nil
}

type stubRouter struct {
	client llm.LLMClient
}

func (r stubRouter) Resolve(modelName string) llm.Backend { return llm.Backend{Name: "stub"} }
func (r stubRouter) ClientFor(b llm.Backend) llm.LLMClient { return r.client }

type stubTool struct {
	name string
}

func (s stubTool) Name() string                       { return s.name }
func (s stubTool) Description() string                { return "stub " + s.name }
func (s stubTool) Parameters() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (s stubTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	return "ok", nil
}

type testEnv struct {
	server    *httptest.Server
	pubkey    string
	signature string
}

func newTestEnv(t *testing.T, streamed ...string) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	registry := tools.NewRegistry()
	for _, name := range tools.DefaultToolNames {
		registry.MustRegister(stubTool{name: name})
	}

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	cfg := &config.Config{
		FreeUserDailyLimit:   10,
		ProUserDailyLimit:    200,
		FreeUserToolLimit:    1,
		PartialFlushChars:    50,
		MaxAgentSteps:        3,
		TurnTimeout:          5 * time.Second,
		ToolTimeout:          time.Second,
		WalletEncryptionSalt: "test_salt",
	}

	svc := service.New(cfg, st,
		stubRouter{client: &scriptedClient{text: streamed}},
		registry, engine,
		solana.NewClient("http://127.0.0.1:0", time.Second),
		tokenizer.ApproxCounter{})

	server := httptest.NewServer(httpserver.NewServer(svc))
	t.Cleanup(server.Close)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pubkey, signature, err := auth.SignChallenge(priv)
	require.NoError(t, err)

	return &testEnv{server: server, pubkey: pubkey, signature: signature}
}

func (e *testEnv) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.server.URL+path, "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestChatStreamsResponse(t *testing.T) {
	env := newTestEnv(t, "Hello ", "world!")

	resp := env.post(t, "/v1/chat", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  env.signature,
		"message":    "hi",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.SplitN(string(data), "\n", 2)
	require.Len(t, lines, 2)

	var header struct {
		ConversationKey string `json:"conversation_key"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	assert.Len(t, header.ConversationKey, 10)
	assert.Equal(t, "Hello world!", lines[1])
}

func TestChatRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/chat", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  "bm90IGEgc2lnbmF0dXJl",
		"message":    "hi",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Authentication failed, please relogin and try again.", body["error"])
}

func TestChatRequiresMessage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/chat", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  env.signature,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestChatRestrictedModelForFreeUser(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/chat", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  env.signature,
		"message":    "hi",
		"model_name": "gpt-4o",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "Free users can only use")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/users/login", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  env.signature,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	resp = env.post(t, "/v1/users/login", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  "bm90IGEgc2lnbmF0dXJl",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProStatus(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/users/pro-status", map[string]interface{}{
		"public_key": env.pubkey,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["is_pro"])

	resp = env.post(t, "/v1/users/pro-status", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGenerateWallet(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/users/generate-wallet", map[string]interface{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["public_key"])
	assert.NotEmpty(t, body["private_key"])
	assert.NotEmpty(t, body["encrypted_private_key"])
}

func TestLastConversations(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/chat/conversations", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  env.signature,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Empty(t, body["conversations"])
}

func TestGetConversationRequiresKey(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/chat/conversation", map[string]interface{}{
		"public_key": env.pubkey,
		"signature":  env.signature,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
}
