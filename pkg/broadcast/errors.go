package broadcast

import "errors"

var (
	ErrClosed  = errors.New("broadcast: broadcaster is closed")
	ErrEncode  = errors.New("broadcast: failed to encode message")
	ErrPublish = errors.New("broadcast: failed to publish message")
)
