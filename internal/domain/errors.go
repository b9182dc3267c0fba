package domain

import "errors"

// Error taxonomy for the chat pipeline. Authentication and rate-limit
// failures are resolved in the gating stages and never reach the engine;
// generation failures are caught at the engine boundary and converted
// into a terminal streamed payload.
var (
	// ErrAuthentication marks an invalid wallet signature.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimit marks a quota or model-tier rejection.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrToolAuthorization marks a tool request beyond the tier's allowance.
	ErrToolAuthorization = errors.New("tool authorization failed")
)
