package interfaces

import "errors"

// ErrCircuitOpen is returned when a circuit breaker rejects a call because
// the protected backend is considered down and the recovery window has not
// elapsed. Callers treat it as "backend unavailable", not as a failure of
// the guarded operation.
var ErrCircuitOpen = errors.New("circuit breaker open")
