package types

import "errors"

// ErrConfiguration marks embed configuration errors. They are fatal to the
// sandbox being created and surface to the caller unchanged; nothing is
// recorded for a sandbox whose creation failed with one.
var ErrConfiguration = errors.New("3p configuration error")
