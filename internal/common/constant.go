package common

const (
	// AuthorizationHeaderName carries the session token as "Bearer <token>".
	AuthorizationHeaderName = "Authorization"

	// MinTokenBytes is the lower bound for verification token entropy (128 bits).
	MinTokenBytes = 16

	// MaxTokenBytes keeps the base64url token within users.verification_token (100 chars).
	MaxTokenBytes = 75
)
