// Package fabric defines the messaging contract agents use to talk to each
// other: addressed messages, per-agent inboxes and the broadcast
// subscription protocol built on top of them.
//
// Transports live in infra/fabric. Memory is the in-process implementation
// used by default and in tests.
package fabric
