package integrations

// LLMCredentials is the sealed payload of an OPENAI, GEMINI, DEEPSEEK or
// OLLAMA credential.
type LLMCredentials struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// OpenWeatherCredentials is the sealed payload of an OPENWEATHER credential.
type OpenWeatherCredentials struct {
	APIKey string `json:"api_key"`
}

// SlackCredentials is the sealed payload of a SLACK credential.
type SlackCredentials struct {
	BotToken  string `json:"bot_token"` // xoxb-... token
	ChannelID string `json:"channel_id,omitempty"`
}

// TestConnectionResult is the outcome of probing an external service.
type TestConnectionResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// DecryptedCredentials is a credential payload after opening.
type DecryptedCredentials map[string]string
