package memory

import "errors"

var errDuplicateHash = errors.New("memory: duplicate refresh token hash")
