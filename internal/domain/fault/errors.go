package fault

import "errors"

// ErrSimulated is returned in place of running a call the policy failed.
var ErrSimulated = errors.New("simulated network error")
