package query

import "encoding/json"

// Sorted exposes the unpaginated pipeline to tests.
func (e *Engine) Sorted(docs []json.RawMessage, d Descriptor, p Params) []json.RawMessage {
	return e.sorted(docs, d, p)
}
