package constancia

import "errors"

// ErrStreamBroken means the response was already started when the copy
// failed.
var ErrStreamBroken = errors.New("constancia: stream interrupted")
