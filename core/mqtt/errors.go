package mqtt

import "errors"

// ErrNotConnected is returned when the broker connection is down.
var ErrNotConnected = errors.New("mqtt client not connected")
