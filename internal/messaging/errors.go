package messaging

import "errors"

// Resolution errors. Both are expected conditions, not failures: a user who
// never linked a chat account or an org without a webhook simply cannot be
// nudged over chat.
var (
	ErrNotLinked    = errors.New("user has no linked chat identity")
	ErrNoCredential = errors.New("org has no messaging credential configured")
)
