package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	SessionsInserted int `json:"sessions_inserted"`
	// SessionsReplaced counts earlier imports of the same session that were overwritten.
	SessionsReplaced int64 `json:"sessions_replaced,omitempty"`

	SetsReceived int   `json:"sets_received"`
	SetsInserted int64 `json:"sets_inserted"`

	Exercises int `json:"exercises"`

	Message string `json:"message,omitempty"`
}
