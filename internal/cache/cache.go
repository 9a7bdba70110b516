package cache

import (
	"time"

	"lendhub/internal/models"
)

// TTL classes. Reference data changes rarely and is cached long;
// operational data is cached briefly to bound staleness; dynamic data
// (lending state) is always re-fetched on orchestrated refresh.
const (
	ReferenceTTL   = 20 * time.Minute
	OperationalTTL = 5 * time.Minute
	DynamicTTL     = 0
)

// DefaultTTLs returns the TTL policy for every entity type.
func DefaultTTLs() map[models.EntityType]time.Duration {
	return map[models.EntityType]time.Duration{
		models.EntityCategories:   ReferenceTTL,
		models.EntityAreas:        ReferenceTTL,
		models.EntityGrades:       ReferenceTTL,
		models.EntityHours:        ReferenceTTL,
		models.EntitySettings:     ReferenceTTL,
		models.EntityUsers:        OperationalTTL,
		models.EntityResources:    OperationalTTL,
		models.EntityLoans:        DynamicTTL,
		models.EntityReservations: DynamicTTL,
		models.EntityMeetings:     DynamicTTL,
	}
}
