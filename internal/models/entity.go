package models

// EntityType identifies one of the synchronized domain collections.
type EntityType string

const (
	EntityUsers        EntityType = "users"
	EntityResources    EntityType = "resources"
	EntityLoans        EntityType = "loans"
	EntityReservations EntityType = "reservations"
	EntityMeetings     EntityType = "meetings"
	EntityCategories   EntityType = "categories"
	EntityAreas        EntityType = "areas"
	EntityGrades       EntityType = "grades"
	EntityHours        EntityType = "hours"
	EntitySettings     EntityType = "settings"
)

// AllEntityTypes lists every synchronized collection in fetch order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityCategories,
		EntityAreas,
		EntityGrades,
		EntityHours,
		EntitySettings,
		EntityUsers,
		EntityResources,
		EntityLoans,
		EntityReservations,
		EntityMeetings,
	}
}

// Valid reports whether t names a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityUsers, EntityResources, EntityLoans, EntityReservations,
		EntityMeetings, EntityCategories, EntityAreas, EntityGrades,
		EntityHours, EntitySettings:
		return true
	}
	return false
}

// Entity is implemented by every cached domain record.
type Entity interface {
	EntityID() string
}
