// Package fabric provides the broker-backed transports of the agent message
// fabric. Every agent owns one topic (MQTT) or subject (NATS) derived from
// its address; messages are JSON encoded envelopes.
//
// New selects the transport from configuration:
//
//	memory  in-process mailboxes (default)
//	mqtt    <domain>/agents/<address>
//	nats    <domain>.agents.<address with "/" replaced by ".">
package fabric
