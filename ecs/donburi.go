// Package ecs provides ECS adapters for canopy.
package ecs

import (
	"github.com/phanxgames/canopy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EventType is the Donburi event type for canopy events. Subscribe to this in
// your ECS systems to receive every event the app dispatched.
var EventType = events.NewEventType[canopy.Event]()

type donburiStore struct {
	world donburi.World
	only  map[canopy.EventType]bool
}

// NewDonburiStore creates an EventStore backed by a Donburi world. When types
// are given, only events of those types are published. Events are consumed
// with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World, types ...canopy.EventType) canopy.EventStore {
	s := &donburiStore{world: world}
	if len(types) > 0 {
		s.only = make(map[canopy.EventType]bool, len(types))
		for _, t := range types {
			s.only[t] = true
		}
	}
	return s
}

func (s *donburiStore) EmitEvent(event canopy.Event) {
	if s.only != nil && !s.only[event.Type] {
		return
	}
	EventType.Publish(s.world, event)
}
