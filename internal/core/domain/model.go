package domain

type Author string

const (
	User      Author = "user"
	Assistant Author = "assistant"
)

type Prompt struct {
	Prompt   string
	ImageURL string
	Author   Author
}

type Model struct {
	Identifier string `json:"identifier"`
}

type ModelResponse struct {
	Response string
	Metadata ResponseMetadata
}

type ResponseMetadata struct {
	Model            string
	CompletionTokens int
	TotalTokens      int
	Cost             float64
}

// Exchange is one user/bot round trip kept in the session history.
type Exchange struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

type ErrorType string

const (
	ConfigError ErrorType = "config_error"
	APIError    ErrorType = "api_error"
)

type ChatRequest struct {
	Query    string `json:"query"`
	ImageURL string `json:"image_url,omitempty"`
	Language string `json:"language,omitempty"`
}

type ChatResponse struct {
	Reply     string    `json:"reply"`
	Error     bool      `json:"error"`
	ErrorType ErrorType `json:"error_type,omitempty"`
	Cost      *float64  `json:"cost,omitempty"`
}

type Stats struct {
	TotalCostUSD    string `json:"total_cost_usd"`
	SessionMessages int    `json:"session_messages"`
}

type ModelStatus struct {
	Identifier string `json:"identifier"`
	State      string `json:"state"`
}

type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
