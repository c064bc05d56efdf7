package types

// Envelope is the uniform JSON shape every API response uses. Success
// responses carry a message plus the payload under "response"; error
// responses carry a message plus the typed error.
type Envelope struct {
	Message  string    `json:"message"`
	Response any       `json:"response,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
