package ports

import "errors"

var ErrNotFound = errors.New("not found")

var ErrConflict = errors.New("conflict")

// ErrTransport couvre les erreurs réseau/timeout/HTTP 5xx côté source de métadonnées.
var ErrTransport = errors.New("transport error")
