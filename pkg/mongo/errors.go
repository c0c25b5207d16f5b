package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("mongo: empty connection url")
	ErrFailedToConnectToMongo = errors.New("mongo: failed to connect")
	ErrHealthcheckFailed      = errors.New("mongo: healthcheck failed")
)
