package query

// Default page limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultLimit sets the limit used when a request omits one.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithMaxLimit caps the page size a caller may request.
func WithMaxLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLimit = n
		}
	}
}
