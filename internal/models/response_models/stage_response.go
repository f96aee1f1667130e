package response_models

// StageResponse is the invocation envelope every pipeline operation returns.
type StageResponse struct {
	Success         bool        `json:"success"`
	Result          interface{} `json:"result,omitempty"`
	ExecutionTimeMs int64       `json:"execution_time_ms"`
	Cached          bool        `json:"cached"`
	Message         string      `json:"message,omitempty"`
	Error           string      `json:"error,omitempty"`
}
