package export

import "errors"

// ErrInvalidExport marks input that is not a file this package wrote.
var ErrInvalidExport = errors.New("invalid export")
