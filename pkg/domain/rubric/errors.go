package rubric

import "errors"

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("invalid rubric configuration")

// ConfigurationError reports a rubric whose weights or bands break the
// rubric invariants. It is fatal at startup.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "rubric configuration: " + e.Reason
}

// Is allows errors.Is(err, ErrConfiguration).
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErr(reason string) error {
	return &ConfigurationError{Reason: reason}
}
