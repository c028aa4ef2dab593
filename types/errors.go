package types

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrMeshFormat      = errors.New("mesh format error")
	ErrStructural      = errors.New("structural error")
	ErrNumericalDomain = errors.New("numerical domain error")
)

func NewConfigurationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func NewMeshFormatError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMeshFormat, fmt.Sprintf(format, args...))
}

func NewStructuralError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}

func NewNumericalDomainError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNumericalDomain, fmt.Sprintf(format, args...))
}
