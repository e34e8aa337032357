// internal/wizard/suggestion/models.go
package suggestion

// Kind tells how a suggestion was produced.
type Kind string

const (
	// Fetched text came from the remote model.
	Fetched Kind = "fetched"
	// Fallback text is the built-in text for the field.
	Fallback Kind = "fallback"
	// Failed carries no text.
	Failed Kind = "failed"
)

// Result is the outcome of one suggestion request. Err is set for Failed results and,
// for Fallback results, holds the remote failure that caused the fallback if any.
type Result struct {
	Kind Kind
	Text string
	Err  error
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
