// Package ecs provides ECS adapters for canopy's event dispatch.
//
// The primary adapter is [NewDonburiStore], which forwards every event the
// app dispatched (after the component tree has seen it) into a [Donburi]
// world as typed events. Subscribe to [EventType] in your ECS systems to
// receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world, canopy.EventKeyDown, canopy.EventKeyUp)
//	app.SetEventStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
