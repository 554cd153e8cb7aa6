package config

import "errors"

var (
	ErrMissingDSN      = errors.New("postgres.dsn must not be empty")
	ErrMissingBrokers  = errors.New("kafka.brokers must not be empty")
	ErrMissingTopic    = errors.New("kafka.topic must not be empty")
	ErrMissingUpstream = errors.New("upstream url must not be empty")
	ErrMissingSecret   = errors.New("auth.secret must not be empty")
	ErrInvalidPort     = errors.New("http.port must be in 1..65535")
)
