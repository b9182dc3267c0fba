// Package policy evaluates tool access rules with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Engine is the OPA policy engine for tool authorization.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_access.decision"),
		rego.Module("tool_access.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input describes a tool authorization request.
type Input struct {
	IsPro          bool     `json:"is_pro"`
	RequestedTools []string `json:"requested_tools"`
	DefaultTools   []string `json:"default_tools"`
	KnownTools     []string `json:"known_tools"`
	FreeToolLimit  int      `json:"free_tool_limit"`
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allow  bool
	Reason string
}

// Evaluate checks the tool access policy for a chat request.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default; an empty result means it failed to load.
		return Decision{}, fmt.Errorf("policy returned no decision")
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	decision := Decision{}
	if allow, ok := obj["allow"].(bool); ok {
		decision.Allow = allow
	}
	if reason, ok := obj["reason"].(string); ok {
		decision.Reason = reason
	}
	return decision, nil
}

// DefaultPolicy authorizes tool selections by membership tier. Free
// users may add at most free_tool_limit tools beyond the defaults; pro
// users may add any number of known tools.
const DefaultPolicy = `
package tool_access

requested := {t | some t in input.requested_tools}

defaults := {t | some t in input.default_tools}

known := {t | some t in input.known_tools}

unknown := requested - known

additional := requested - defaults

decision := {"allow": false, "reason": sprintf("unknown tool: %v", [unknown])} if {
	count(unknown) > 0
} else := {"allow": false, "reason": "free tier allows limited additional tools; upgrade to pro for more"} if {
	not input.is_pro
	count(additional) > input.free_tool_limit
} else := {"allow": true, "reason": ""}
`
