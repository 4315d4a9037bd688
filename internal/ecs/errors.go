package ecs

import (
	"errors"
	"fmt"
)

// ContainerNotFoundError reports a per-container operation that named a
// container absent from the task definition. The operation applies nothing
// when this is returned.
type ContainerNotFoundError struct {
	// Container is the unknown container name.
	Container string
}

func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("unknown container: %s", e.Container)
}

// NewContainerNotFoundError creates a ContainerNotFoundError for the given
// container name.
func NewContainerNotFoundError(container string) *ContainerNotFoundError {
	return &ContainerNotFoundError{Container: container}
}

// IsContainerNotFound checks whether err is or wraps a ContainerNotFoundError.
func IsContainerNotFound(err error) bool {
	var notFound *ContainerNotFoundError
	return errors.As(err, &notFound)
}
