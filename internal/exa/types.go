package exa

// Wire types for the Exa AI REST API (https://api.exa.ai). Field names follow
// the API's camelCase JSON.

// Contents controls which document contents the API returns inline.
type Contents struct {
	Text bool `json:"text"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query      string   `json:"query"`
	Type       string   `json:"type,omitempty"`
	NumResults int      `json:"numResults"`
	Contents   Contents `json:"contents"`
}

// FindSimilarRequest is the body of POST /findSimilar.
type FindSimilarRequest struct {
	URL        string   `json:"url"`
	NumResults int      `json:"numResults"`
	Contents   Contents `json:"contents"`
}

// ContentsRequest is the body of POST /contents.
type ContentsRequest struct {
	IDs      []string `json:"ids"`
	Contents Contents `json:"contents"`
}

// Result is an individual search result.
type Result struct {
	Score         float64 `json:"score,omitempty"`
	Title         string  `json:"title"`
	ID            string  `json:"id"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"publishedDate,omitempty"`
	Author        string  `json:"author,omitempty"`
	Text          string  `json:"text,omitempty"`
	Image         string  `json:"image,omitempty"`
	Favicon       string  `json:"favicon,omitempty"`
}

// SearchResponse is the body returned by /search and /findSimilar.
type SearchResponse struct {
	RequestID          string   `json:"requestId"`
	AutopromptString   string   `json:"autopromptString,omitempty"`
	ResolvedSearchType string   `json:"resolvedSearchType,omitempty"`
	Results            []Result `json:"results"`
}

// ContentsResponse is the body returned by /contents.
type ContentsResponse struct {
	RequestID string   `json:"requestId"`
	Results   []Result `json:"results"`
}

// apiErrorBody is the JSON error envelope the API returns on failure.
type apiErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
