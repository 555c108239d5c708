package normalize

import "fmt"

// ConflictError reports a currency or classification conflict the engine
// cannot resolve by splitting. It is propagated rather than guessed around.
type ConflictError struct {
	Location string
	Resort   string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("normalization conflict in %q / %q: %s", e.Location, e.Resort, e.Message)
}
