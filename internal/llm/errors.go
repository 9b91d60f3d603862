package llm

import (
	"fmt"
)

// ConfigurationError reports a missing or unusable setting, e.g. an absent
// API credential.
type ConfigurationError struct {
	Backend Backend
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s backend: %s is not set", e.Backend, e.Setting)
}

// UnsupportedBackendError reports a backend identifier with no provider.
type UnsupportedBackendError struct {
	Backend string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported backend %q (choose from %v)", e.Backend, Selectors())
}

// NetworkError reports that a request to a backend could not complete.
type NetworkError struct {
	Backend Backend
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s backend unreachable: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceError reports a backend that answered, but not with a usable result.
type ServiceError struct {
	Backend    Backend
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend returned status %d: %s", e.Backend, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s backend: %s", e.Backend, e.Message)
}
