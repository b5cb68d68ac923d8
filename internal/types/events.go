package types

// MessagesPath is the request path of language-model API calls in the request log.
const MessagesPath = "/v1/messages"

// StatusCompressed marks a tool output that went through compression.
// Every other status is treated as passthrough.
const StatusCompressed = "compressed"

// RequestEvent is one line of the gateway request log (telemetry.jsonl)
type RequestEvent struct {
	Path              string `json:"path"`
	Model             string `json:"model,omitempty"`
	CompressionUsed   bool   `json:"compression_used"`
	OriginalTokens    int    `json:"original_tokens"`
	TokensSaved       int    `json:"tokens_saved"`
	ShadowRefsCreated int    `json:"shadow_refs_created"`
	ExpandCallsFound  int    `json:"expand_calls_found"`
	Timestamp         string `json:"timestamp"`
}

// ModelKey returns the model name used for per-model grouping.
func (e RequestEvent) ModelKey() string {
	if e.Model == "" {
		return "unknown"
	}
	return e.Model
}

// CompressionEvent is one line of the tool-output compression log (compression.jsonl)
type CompressionEvent struct {
	ToolName        string `json:"tool_name,omitempty"`
	Status          string `json:"status"`
	OriginalBytes   int    `json:"original_bytes"`
	CompressedBytes *int   `json:"compressed_bytes,omitempty"` // nil means not reported
	MinThreshold    int    `json:"min_threshold,omitempty"`    // 0 means not reported
}

// ToolKey returns the tool name used for per-tool grouping.
func (e CompressionEvent) ToolKey() string {
	if e.ToolName == "" {
		return "unknown"
	}
	return e.ToolName
}

// Compressed returns the compressed size, falling back to the original size
// (a no-op compression) when the field was absent.
func (e CompressionEvent) Compressed() int {
	if e.CompressedBytes == nil {
		return e.OriginalBytes
	}
	return *e.CompressedBytes
}

// IsCompressed reports whether the output went through compression.
func (e CompressionEvent) IsCompressed() bool {
	return e.Status == StatusCompressed
}
