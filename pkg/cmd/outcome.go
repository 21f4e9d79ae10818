package cmd

// Outcome is what a sub-stage hands back to the assembler: either a value
// it produced, or a neutral default plus the reason it degraded. Errors
// never leave the stage any other way.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Err      error
	Messages []string
}

// Success wraps a produced value and any warnings raised while producing it.
func Success[T any](v T, messages ...string) Outcome[T] {
	return Outcome[T]{Value: v, Messages: messages}
}

// Degraded wraps the default used after a recoverable failure.
func Degraded[T any](def T, err error, message string) Outcome[T] {
	return Outcome[T]{Value: def, Degraded: true, Err: err, Messages: []string{message}}
}
