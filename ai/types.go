package ai

// ModelSettings describes one chat model endpoint.
type ModelSettings struct {
	Host        string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int

	// JSONMode asks the server to constrain output to a JSON object.
	JSONMode bool
}
