// Package service implements the chat pipeline: authentication, quota
// enforcement, conversation continuity, model routing, agent execution
// and turn persistence.
package service

import (
	"errors"

	"github.com/solkit/solkit/internal/adapter/llm"
	"github.com/solkit/solkit/internal/config"
	"github.com/solkit/solkit/internal/policy"
	store "github.com/solkit/solkit/internal/repository"
	"github.com/solkit/solkit/internal/solana"
	"github.com/solkit/solkit/internal/tokenizer"
	"github.com/solkit/solkit/internal/tools"
)

// modelRouter resolves a model name to a backend and hands out clients.
// *llm.Router satisfies it; tests substitute scripted clients.
type modelRouter interface {
	Resolve(modelName string) llm.Backend
	ClientFor(backend llm.Backend) llm.LLMClient
}

type Service struct {
	config       *config.Config
	store        store.Store
	router       modelRouter
	registry     *tools.Registry
	policyEngine *policy.Engine
	rpc          *solana.Client
	tokens       tokenizer.Counter
}

func New(cfg *config.Config, st store.Store, router modelRouter, registry *tools.Registry, policyEngine *policy.Engine, rpc *solana.Client, tokens tokenizer.Counter) *Service {
	return &Service{
		config:       cfg,
		store:        st,
		router:       router,
		registry:     registry,
		policyEngine: policyEngine,
		rpc:          rpc,
		tokens:       tokens,
	}
}

// ClientError is a pipeline rejection whose message is safe to return
// to the caller. Kind is one of the domain sentinel errors so handlers
// can map the rejection to a transport status.
type ClientError struct {
	Kind    error
	Message string
}

func (e *ClientError) Error() string { return e.Message }

func (e *ClientError) Unwrap() error { return e.Kind }

func clientErr(kind error, message string) *ClientError {
	return &ClientError{Kind: kind, Message: message}
}

// ClientMessage extracts the user-facing message from a pipeline error,
// or empty if the error is internal.
func ClientMessage(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return ""
}
