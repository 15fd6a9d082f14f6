package providers

import "fmt"

// UpstreamError describes a failed call to the text-generation API.
// StatusCode is 0 when no response was received. Message is the error
// message reported by the upstream body, empty when it carried none.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	default:
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
