package liquid

import "errors"

// ErrInvalidConfig is returned when a liquid or engine is constructed with
// parameters the propagation rules cannot honour.
var ErrInvalidConfig = errors.New("invalid liquid configuration")
