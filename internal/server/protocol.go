package server

// ScriptMessage is a client request: free-text action lines to run.
type ScriptMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// ResultMessage reports one executed call back to the client.
type ResultMessage struct {
	Type       string   `json:"type"`
	ID         string   `json:"id,omitempty"`
	Action     string   `json:"action"`
	Data       []string `json:"data,omitempty"`
	Status     string   `json:"status,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// DoneMessage closes out a script request.
type DoneMessage struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Executed int    `json:"executed"`
}

// HistoryMessage answers a history request.
type HistoryMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Records any    `json:"records"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}
