package resources

import "fmt"

// OptionsError reports options rejected before any resource is declared.
type OptionsError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *OptionsError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid %s options: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s options for %q: %s", e.Kind, e.Name, e.Reason)
}

func optionsErrorf(kind, name, format string, args ...any) error {
	return &OptionsError{Kind: kind, Name: name, Reason: fmt.Sprintf(format, args...)}
}
