package models

// GenerationRequest is the caller-facing input to the cover pipeline.
// It is built per call and never persisted.
type GenerationRequest struct {
	SubjectText string `json:"subjectText"`
	GroupID     string `json:"groupId"`
	CallerName  string `json:"callerName"`
}

// Response is the caller-facing result of one pipeline run.
//
// Exactly one of ArtifactURL != nil, BudgetExceeded, or Error != "" holds.
// Cached implies ArtifactURL is set.
type Response struct {
	ArtifactURL    *string `json:"artifactURL"`
	Cached         bool    `json:"cached"`
	BudgetExceeded bool    `json:"budgetExceeded"`
	Error          string  `json:"error,omitempty"`
}

// HitResponse returns the response for a cached artifact.
func HitResponse(url string) Response {
	return Response{ArtifactURL: &url, Cached: true}
}

// GeneratedResponse returns the response for a freshly generated artifact.
func GeneratedResponse(url string) Response {
	return Response{ArtifactURL: &url}
}

// BudgetExceededResponse returns the response when the global cap is reached.
func BudgetExceededResponse() Response {
	return Response{BudgetExceeded: true}
}

// FailedResponse returns a non-fatal "no artifact produced" response.
func FailedResponse(msg string) Response {
	return Response{Error: msg}
}
