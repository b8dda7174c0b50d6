package evtrack

import (
	"time"
)

// EventCount is the number of handlers registered under one event name.
type EventCount struct {
	Name     string `json:"name" bson:"name" msgpack:"name"`
	Handlers int    `json:"handlers" bson:"handlers" msgpack:"handlers"`
}

// ObjectReport lists the events registered on one tracked object.
type ObjectReport struct {
	ID     ObjectID     `json:"id" bson:"id" msgpack:"id"`
	Type   string       `json:"type,omitempty" bson:"type,omitempty" msgpack:"type,omitempty"`
	Events []EventCount `json:"events" bson:"events" msgpack:"events"`
}

// Handlers returns the number of handlers registered on the object.
func (o *ObjectReport) Handlers() int {
	n := 0
	for _, e := range o.Events {
		n += e.Handlers
	}
	return n
}

// Event returns the handler count for an event name.
func (o *ObjectReport) Event(name string) int {
	for _, e := range o.Events {
		if e.Name == name {
			return e.Handlers
		}
	}
	return 0
}

// Report is a snapshot of the registry.
// Objects are ordered by id and events by name.
type Report struct {
	ID      string         `json:"id" bson:"_id" msgpack:"id"`
	Name    string         `json:"name" bson:"name" msgpack:"name"`
	TakenAt time.Time      `json:"taken_at" bson:"taken_at" msgpack:"taken_at"`
	Objects []ObjectReport `json:"objects" bson:"objects" msgpack:"objects"`
}

// Empty returns true if no object has registered handlers.
func (r *Report) Empty() bool {
	return len(r.Objects) == 0
}

// Handlers returns the total number of registered handlers.
func (r *Report) Handlers() int {
	n := 0
	for i := range r.Objects {
		n += r.Objects[i].Handlers()
	}
	return n
}

// Object returns the report for an object id, or nil.
func (r *Report) Object(id ObjectID) *ObjectReport {
	for i := range r.Objects {
		if r.Objects[i].ID == id {
			return &r.Objects[i]
		}
	}
	return nil
}
