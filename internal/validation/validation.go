package validation

import "fmt"

// ValidationError reports a construction-time validation failure. The object
// being constructed is never partially created when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
