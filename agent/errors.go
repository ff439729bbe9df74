package agent

import "errors"

// ErrUpstream marks a failed model backend call during the loop
var ErrUpstream = errors.New("model backend request failed")

// ConfigurationError is a request problem detected before any model call
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// IsConfigurationError reports whether err is a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
