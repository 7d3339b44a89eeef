package models

// Answer is the non-streaming response shape handed to the HTTP boundary.
type Answer struct {
	Answer  string        `json:"answer"`
	Matches []MatchDetail `json:"matches"`
}

// MatchDetail is the outward-facing view of a retrieved match.
type MatchDetail struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	Score   float32  `json:"score"`
	API     *APIInfo `json:"api,omitempty"`
}

// APIInfo is the structured API description parsed out of a documentation
// section: endpoint, payload and response bodies, and a runnable example.
type APIInfo struct {
	Name            string                 `json:"api_name"`
	Endpoint        string                 `json:"endpoint,omitempty"`
	RequiredPayload map[string]interface{} `json:"required_payload,omitempty"`
	ResponseBody    map[string]interface{} `json:"response_body,omitempty"`
	Example         string                 `json:"example,omitempty"`
}
