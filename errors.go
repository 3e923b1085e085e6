package graphsim

import (
	"errors"
)

var (
	// ErrEmptyRelations is returned by BuildIndex when the reference
	// relation set is empty. There is no meaningful similarity search
	// against an empty reference set; silently returning an empty index
	// would let every later candidate be dropped for the wrong reason.
	ErrEmptyRelations = errors.New("cannot build index: relations is empty")
)
