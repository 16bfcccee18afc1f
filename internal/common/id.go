package common

import (
	"github.com/google/uuid"
)

// NewTurnID generates a unique chat turn ID with the "turn_" prefix
func NewTurnID() string {
	return "turn_" + uuid.New().String()
}

// NewRequestID generates a correlation id for a single HTTP or CLI request
func NewRequestID() string {
	return uuid.New().String()
}
