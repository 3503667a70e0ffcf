package patterns

import "errors"

// ErrNotTrained indicates Predict was called before any successful Train
var ErrNotTrained = errors.New("model not trained")
