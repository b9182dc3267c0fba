package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/solkit/solkit/internal/adapter/llm"
	"github.com/solkit/solkit/internal/auth"
	"github.com/solkit/solkit/internal/domain"
	"github.com/solkit/solkit/internal/policy"
	"github.com/solkit/solkit/internal/tools"
	"github.com/solkit/solkit/internal/trace"
)

const baseSystemMessage = "You are SolKit, a helpful AI assistant specialized in Solana actions and queries."

// finalizeTimeout bounds the terminal database writes after the turn
// context is spent.
const finalizeTimeout = 10 * time.Second

// StreamChat runs one chat turn end to end. Gating failures (bad
// signature, model tier, quota, tool authorization) are returned as
// *ClientError before anything is streamed; once the turn is accepted
// the first emitted chunk is a JSON line carrying the conversation key
// and everything after it is response text. Generation failures after
// that point are delivered in-stream as a JSON error payload and the
// turn row records the failure. A caller disconnect commits whatever
// text was already generated.
func (s *Service) StreamChat(ctx context.Context, req domain.ChatRequest, emit emitFunc) error {
	if !auth.VerifySignature(req.PublicKey, req.Signature) {
		log.Printf("WARN: chat signature verification failed for %s", req.PublicKey)
		return clientErr(domain.ErrAuthentication, "Authentication failed, please relogin and try again.")
	}

	// User rows are only created on the login path; an unknown user
	// simply resolves to the free tier here.
	status, err := s.ProStatus(ctx, req.PublicKey)
	if err != nil {
		return err
	}

	model := req.ModelName
	if model == "" {
		model = domain.DefaultModel
	}
	if !domain.SupportedModels[model] {
		return clientErr(domain.ErrRateLimit, fmt.Sprintf("Model %s is not supported.", model))
	}
	if !status.IsPro && model != domain.DefaultModel && !strings.HasPrefix(model, domain.LightweightModelPrefix) {
		log.Printf("WARN: free user %s requested restricted model %s", req.PublicKey, model)
		return clientErr(domain.ErrRateLimit, "Free users can only use the default "+domain.DefaultModel+" model or Sol models, upgrade to pro for more models.")
	}

	if err := s.checkQuota(ctx, req.PublicKey, status.IsPro); err != nil {
		return err
	}

	temperature := llm.NormalizeTemperature(req.Temperature)

	conversationKey, err := s.resolveConversationKey(ctx, req.PublicKey, req.ConversationKey)
	if err != nil {
		return err
	}

	// Unknown capability names are dropped silently; a stale client
	// tool list must not fail the request.
	requestedTools := make([]string, 0, len(req.Tools))
	for _, name := range req.Tools {
		if _, ok := s.registry.Get(name); ok {
			requestedTools = append(requestedTools, name)
		} else {
			log.Printf("WARN: dropping unknown tool %q requested by %s", name, req.PublicKey)
		}
	}

	// Tool authorization happens before the turn exists, so a denied
	// request never consumes quota or leaves a failed row behind.
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		IsPro:          status.IsPro,
		RequestedTools: requestedTools,
		DefaultTools:   tools.DefaultToolNames,
		KnownTools:     s.registry.Names(),
		FreeToolLimit:  s.config.FreeUserToolLimit,
	})
	if err != nil {
		return fmt.Errorf("tool policy evaluation failed: %w", err)
	}
	if !decision.Allow {
		log.Printf("WARN: tool authorization denied for %s: %s", req.PublicKey, decision.Reason)
		return clientErr(domain.ErrToolAuthorization, decision.Reason)
	}

	selected, err := s.registry.Select(mergeToolNames(tools.DefaultToolNames, requestedTools))
	if err != nil {
		return fmt.Errorf("failed to select tools: %w", err)
	}

	history, err := s.conversationHistory(ctx, req.PublicKey, conversationKey)
	if err != nil {
		return err
	}

	// The persisted parameter snapshot deliberately excludes the agent
	// wallet fields.
	params, err := json.Marshal(domain.TurnParams{
		PublicKey:       req.PublicKey,
		ConversationKey: conversationKey,
		Message:         req.Message,
		ModelName:       model,
		Temperature:     temperature,
		Tools:           requestedTools,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal turn params: %w", err)
	}

	turn := &domain.Turn{
		Pubkey:          req.PublicKey,
		ConversationKey: conversationKey,
		InputParams:     params,
		Message:         req.Message,
	}
	if err := s.store.CreateTurn(ctx, turn); err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}

	sink := trace.NewSink()
	recorder := newTurnRecorder(s.store, turn.ID, s.config.PartialFlushChars, sink)

	keyLine, _ := json.Marshal(map[string]string{"conversation_key": conversationKey})
	if err := emit(string(keyLine) + "\n"); err != nil {
		log.Printf("WARN: client disconnected before turn %d started: %v", turn.ID, err)
		persistCtx, persistCancel := context.WithTimeout(context.Background(), finalizeTimeout)
		defer persistCancel()
		recorder.Finalize(persistCtx, "", false, 0, 0, 0)
		return nil
	}

	turnCtx, cancel := context.WithTimeout(ctx, s.config.TurnTimeout)
	defer cancel()

	backend := s.router.Resolve(model)
	client := s.router.ClientFor(backend)
	sink.Printf("routing model %s to %s backend", model, backend.Name)

	direct := strings.HasPrefix(model, domain.LightweightModelPrefix)
	systemMessage := baseSystemMessage
	if !direct {
		systemMessage = fullSystemMessage(req.AgentPublic, req.AgentPrivate, selected)
	}

	messages := buildMessages(systemMessage, history, req.Message)
	inputTokens := s.countInputTokens(systemMessage, history, req.Message)

	g := &generation{
		backend:     backend,
		client:      client,
		model:       model,
		temperature: temperature,
		messages:    messages,
		toolset:     selected,
		emit:        emit,
		recorder:    recorder,
		sink:        sink,
	}

	if direct {
		err = s.runDirect(turnCtx, g)
	} else {
		err = s.runAgent(turnCtx, g)
	}

	persistCtx, persistCancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer persistCancel()

	if errors.Is(err, errClientGone) {
		// The caller dropped mid-stream. Commit whatever text made it
		// out so the conversation record reflects what was generated.
		log.Printf("WARN: client disconnected during turn %d: %v", turn.ID, err)
		recorder.Finalize(persistCtx, recorder.Response(), false, 0, 0, 0)
		return nil
	}
	if err != nil {
		log.Printf("ERROR: chat generation failed for turn %d: %v", turn.ID, err)
		errLine, _ := json.Marshal(map[string]string{"error": err.Error()})
		if emitErr := emit(string(errLine)); emitErr != nil {
			log.Printf("WARN: failed to deliver error to client: %v", emitErr)
		}
		recorder.Finalize(persistCtx, "Error: "+err.Error(), false, 0, 0, 0)
		return nil
	}

	response := recorder.Response()
	outputTokens := s.tokens.Count(response)
	totalTokens := inputTokens + outputTokens
	log.Printf("INFO: turn %d tokens: input=%d output=%d total=%d", turn.ID, inputTokens, outputTokens, totalTokens)

	recorder.Finalize(persistCtx, response, true, inputTokens, outputTokens, totalTokens)
	return nil
}

// fullSystemMessage assembles the agent-mode system prompt: the base
// identity, the agent wallet block when one is connected, and the
// descriptions of every selected tool.
func fullSystemMessage(agentPublic, agentPrivate string, selected []tools.Tool) string {
	var b strings.Builder
	b.WriteString(baseSystemMessage)
	b.WriteByte('\n')

	if agentPublic != "" && agentPrivate != "" {
		b.WriteString("For any agentic execution, only when required you must use the following information:\n")
		b.WriteString("AGENT WALLET PUBLIC KEY:\n")
		b.WriteString(agentPublic)
		b.WriteString("\nAGENT WALLET ENCRYPTED PRIVATE KEY:\n")
		b.WriteString(agentPrivate)
		b.WriteString("\n\nIf you're providing information, always try to provide it in an organised manner. Use markdown formatting and tables. Use headings judiciously, bullet points, and other formatting to make the information clear and easy to read.\n")
	} else {
		b.WriteString("The user must first connect an agent wallet.\n")
	}

	b.WriteString("\n")
	b.WriteString(tools.SystemMessage(selected))
	return b.String()
}

// buildMessages assembles the model transcript: system prompt, prior
// exchanges, then the new user message.
func buildMessages(systemMessage string, history []domain.Turn, userMessage string) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, 2*len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: systemMessage})
	for _, t := range history {
		if t.Message != "" {
			messages = append(messages, llm.ChatMessage{Role: "user", Content: t.Message})
		}
		if t.Response != "" {
			messages = append(messages, llm.ChatMessage{Role: "assistant", Content: t.Response})
		}
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userMessage})
	return messages
}

func (s *Service) countInputTokens(systemMessage string, history []domain.Turn, userMessage string) int {
	count := s.tokens.Count(systemMessage)
	for _, t := range history {
		count += s.tokens.Count(t.Message)
		count += s.tokens.Count(t.Response)
	}
	count += s.tokens.Count(userMessage)
	return count
}

// mergeToolNames appends the requested tools to the defaults without
// duplicates, preserving order.
func mergeToolNames(defaults, requested []string) []string {
	merged := make([]string, 0, len(defaults)+len(requested))
	seen := map[string]bool{}
	for _, name := range defaults {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	for _, name := range requested {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged
}
