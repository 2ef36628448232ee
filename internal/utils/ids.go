package utils

import "github.com/google/uuid"

// IsUUID accepts the canonical 36 character form only.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
