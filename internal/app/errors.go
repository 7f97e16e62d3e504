package app

import "errors"

// ErrInvalidUtterance marks an utterance the pipeline cannot accept, such
// as empty text or a missing match id.
var ErrInvalidUtterance = errors.New("invalid utterance")
