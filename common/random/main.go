package random

import (
	"strings"

	"github.com/google/uuid"
)

// GetUUID generates a UUID and returns it as a string without hyphens.
func GetUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewRunID returns an id shaped like the ones the vendor API hands out.
func NewRunID() string {
	return "tr_" + GetUUID()[:24]
}

// NewInvocationID identifies one CLI invocation across the stages' logs.
func NewInvocationID() string {
	return uuid.NewString()
}
