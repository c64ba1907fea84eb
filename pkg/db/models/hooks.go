package models

import "github.com/google/uuid"

// ensureID assigns a v4 id when the database default is not in play
// (sqlite in tests, or rows built before insert).
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
