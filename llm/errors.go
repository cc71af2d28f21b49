package llm

import "fmt"

// ProviderError is returned by the gateway when a backend call fails.
type ProviderError struct {
	Provider string
	Model    string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Provider, e.Model, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Provider, e.Model, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// wrapProviderError attaches provider identity to a failed call.
func wrapProviderError(p Provider, message string, err error) error {
	return &ProviderError{
		Provider: p.Name(),
		Model:    p.Model(),
		Message:  message,
		Err:      err,
	}
}
