package shared

import "time"

// BaseEntity carries the identity and timestamps of every stored record
type BaseEntity struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a new record with id and the current UTC time
func NewBaseEntity(id string) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt to now
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// BaseAggregateRoot is a BaseEntity that is saved under optimistic locking
// and buffers the domain events raised by its transitions until they are
// published.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	events  []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot(id string) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(id), Version: 1}
}

// AddDomainEvent buffers an event
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the buffered events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops the buffered events once they have been published
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}
