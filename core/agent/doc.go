// Package agent defines the runtime unit of the simulation. Every topology
// node becomes exactly one Agent bound to a fabric endpoint at the node's
// address. Agents expose their work as Behaviours which the Runtime runs as
// goroutines until the run context is cancelled.
//
// Concrete agent types are registered on a Factory by type string.
package agent
