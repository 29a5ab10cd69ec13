package utils

import "github.com/google/uuid"

// GetUUID returns a random version 4 UUID string.
func GetUUID() string {
	return uuid.New().String()
}
