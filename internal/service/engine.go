package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/solkit/solkit/internal/adapter/llm"
	"github.com/solkit/solkit/internal/tools"
	"github.com/solkit/solkit/internal/trace"
)

// emitFunc delivers one chunk of response text to the client. A
// non-nil error means the client is gone and generation should stop.
type emitFunc func(text string) error

// errClientGone marks a failed write to the caller's stream. The turn
// still commits with whatever text was accumulated before the drop.
var errClientGone = errors.New("client stream closed")

// engineState is the phase of the agent loop for one turn.
type engineState int

const (
	// stateThinking means the model is producing either response text
	// or tool calls.
	stateThinking engineState = iota
	// stateAwaitingToolResult means tool calls are being executed and
	// their observations fed back.
	stateAwaitingToolResult
	// stateResponding means the step budget is spent and the model is
	// forced to answer without further tool access.
	stateResponding
	// stateDone means the final response has been streamed.
	stateDone
)

// generation bundles everything one turn's model execution needs.
type generation struct {
	backend     llm.Backend
	client      llm.LLMClient
	model       string
	temperature float64
	messages    []llm.ChatMessage
	toolset     []tools.Tool
	emit        emitFunc
	recorder    *turnRecorder
	sink        *trace.Sink
}

func (g *generation) tracef(format string, args ...interface{}) {
	if g.sink != nil {
		g.sink.Printf(format, args...)
	}
}

// runDirect streams a single completion with no tool access. Used for
// the lightweight model family, which runs in plain conversational mode.
func (s *Service) runDirect(ctx context.Context, g *generation) error {
	_, _, err := s.streamStep(ctx, g, false)
	return err
}

// runAgent drives the tool-augmented loop as an explicit state machine.
// Each thinking step streams; response text goes straight to the client
// while tool calls accumulate from their deltas. Tool observations are
// appended to the transcript and the loop continues until the model
// answers without calling tools or the step budget runs out, at which
// point one final step runs with tools withheld so the turn always ends
// in a streamed answer.
func (s *Service) runAgent(ctx context.Context, g *generation) error {
	state := stateThinking
	steps := 0

	var content string
	var calls []llm.ToolCall

	for state != stateDone {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch state {
		case stateThinking:
			var err error
			content, calls, err = s.streamStep(ctx, g, true)
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				state = stateDone
				break
			}
			g.messages = append(g.messages, llm.ChatMessage{
				Role:      "assistant",
				Content:   content,
				ToolCalls: calls,
			})
			state = stateAwaitingToolResult

		case stateAwaitingToolResult:
			for _, call := range calls {
				observation := s.invokeTool(ctx, g, call)
				if err := ctx.Err(); err != nil {
					return err
				}
				g.messages = append(g.messages, llm.ChatMessage{
					Role:       "tool",
					Content:    observation,
					ToolCallID: call.ID,
				})
			}
			steps++
			if steps >= s.config.MaxAgentSteps {
				g.tracef("agent step budget exhausted after %d steps, forcing final answer", steps)
				state = stateResponding
			} else {
				state = stateThinking
			}

		case stateResponding:
			if _, _, err := s.streamStep(ctx, g, false); err != nil {
				return err
			}
			state = stateDone
		}
	}
	return nil
}

// streamStep runs one streaming completion. Content deltas are emitted
// to the client and recorded as they arrive; tool-call deltas are
// reassembled by index. Returns the step's full content and any
// completed tool calls.
func (s *Service) streamStep(ctx context.Context, g *generation, withTools bool) (string, []llm.ToolCall, error) {
	req := &llm.ChatCompletionRequest{
		Model:       g.model,
		Messages:    g.messages,
		Temperature: &g.temperature,
		MaxTokens:   g.backend.MaxTokens,
		Stream:      true,
	}
	if withTools && g.backend.ToolsEnabled {
		req.Tools = toolDefinitions(g.toolset)
	}

	var content string
	pending := map[int]*llm.ToolCall{}

	_, err := g.client.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Delta == nil {
				continue
			}
			if choice.Delta.Content != "" {
				content += choice.Delta.Content
				g.recorder.Append(ctx, choice.Delta.Content)
				if err := g.emit(choice.Delta.Content); err != nil {
					return fmt.Errorf("%w: %v", errClientGone, err)
				}
			}
			for _, delta := range choice.Delta.ToolCalls {
				if delta.Index == nil {
					continue
				}
				call, ok := pending[*delta.Index]
				if !ok {
					call = &llm.ToolCall{Type: "function"}
					pending[*delta.Index] = call
				}
				if delta.ID != "" {
					call.ID = delta.ID
				}
				if delta.Function.Name != "" {
					call.Function.Name = delta.Function.Name
				}
				call.Function.Arguments += delta.Function.Arguments
			}
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("completion stream failed: %w", err)
	}

	indices := make([]int, 0, len(pending))
	for i := range pending {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	calls := make([]llm.ToolCall, 0, len(pending))
	for _, i := range indices {
		calls = append(calls, *pending[i])
	}
	return content, calls, nil
}

// invokeTool executes one tool call under the tool deadline and returns
// the observation to feed back to the model. A malformed call or a
// timed-out tool produces an error observation rather than failing the
// turn; the model gets to see what went wrong and recover.
func (s *Service) invokeTool(ctx context.Context, g *generation, call llm.ToolCall) string {
	name := call.Function.Name
	tool, ok := s.registry.Get(name)
	if !ok || !toolSelected(g.toolset, name) {
		g.tracef("model requested unavailable tool %q", name)
		return fmt.Sprintf("Error: tool %q is not available for this request.", name)
	}

	toolCtx, cancel := context.WithTimeout(ctx, s.config.ToolTimeout)
	defer cancel()

	g.tracef("invoking tool %s with args %s", name, call.Function.Arguments)
	observation, err := tool.Invoke(toolCtx, []byte(call.Function.Arguments))
	if err != nil {
		if ctx.Err() != nil {
			// The turn itself is over; the caller handles it.
			return ""
		}
		g.tracef("tool %s failed: %v", name, err)
		return fmt.Sprintf("Error: tool %q did not complete: %v", name, err)
	}
	g.tracef("tool %s returned %d bytes", name, len(observation))
	return observation
}

func toolSelected(toolset []tools.Tool, name string) bool {
	for _, t := range toolset {
		if t.Name() == name {
			return true
		}
	}
	return false
}

// toolDefinitions converts the selected tools to the wire format.
func toolDefinitions(toolset []tools.Tool) []llm.Tool {
	defs := make([]llm.Tool, 0, len(toolset))
	for _, t := range toolset {
		defs = append(defs, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}
