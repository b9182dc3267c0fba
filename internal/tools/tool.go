// Package tools implements the assistant's tool surface: on-chain and
// market data lookups exposed to the model through function calling.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a single capability the model can invoke.
type Tool interface {
	// Name returns the wire name of the tool.
	Name() string

	// Description returns the model-facing description, including the
	// priority hint used in the system message.
	Description() string

	// Parameters returns the JSON schema of the tool's arguments.
	Parameters() map[string]interface{}

	// Invoke executes the tool. Upstream failures are reported as
	// human-readable observation text; the error return is reserved
	// for cancellation and deadline expiry.
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

func stringParam(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func intParam(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// decodeArgs unmarshals tool arguments, tolerating an empty payload.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}
