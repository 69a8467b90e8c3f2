package llm

import "fmt"

// ConfigurationError reports a backend that cannot be called at all.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// SummarizationError wraps any failure of a configured backend.
type SummarizationError struct {
	Cause error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization: %v", e.Cause)
}

func (e *SummarizationError) Unwrap() error {
	return e.Cause
}
