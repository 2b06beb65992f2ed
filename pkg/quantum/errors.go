package quantum

import "errors"

// ErrZeroVector is returned when PrepareB is given an all-zero vector.
var ErrZeroVector = errors.New("quantum: cannot normalize a zero vector")
