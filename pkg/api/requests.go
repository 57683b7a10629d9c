package api

import (
	"regexp"

	"github.com/airsift/airsift/pkg/agent"
)

// maxMessageBytes is the hard request message cap (500 KB).
const maxMessageBytes = 500 * 1024

// maxRequestBytes bounds the whole request body, leaving headroom for
// multipart document uploads alongside a maximum-size message.
const maxRequestBytes = 2 * 1024 * 1024

// maxDocumentBytes caps one uploaded document's stored content.
const maxDocumentBytes = 256 * 1024

// sessionIDPattern is the accepted opaque session id shape.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,100}$`)

// ChatRequest is the body for POST /chat and POST /chat/stream. Accepted
// as JSON or form fields; file uploads ride alongside as multipart parts
// named "file".
type ChatRequest struct {
	Message   string `json:"message" form:"message"`
	SessionID string `json:"session_id" form:"session_id"`
	Style     string `json:"style" form:"style"`

	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	// TopK is accepted for client compatibility; the configured backends
	// do not support it and it is ignored.
	TopK      int `json:"top_k,omitempty"`
	MaxTokens int `json:"max_tokens,omitempty" form:"max_tokens"`

	Location *agent.LocationData `json:"location_data,omitempty"`
}
