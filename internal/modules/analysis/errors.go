package analysis

import "errors"

// ErrUnknownVersion indicates a version tag with no capability profile
var ErrUnknownVersion = errors.New("unknown engine version")
