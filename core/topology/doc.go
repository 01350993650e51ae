// Package topology turns the declarative network description into a
// validated tree of nodes. Every node receives a hierarchical address built
// from the names along its path (for example "main_network/houses/pv1"), which
// is unique across the tree and lets any node derive its parent's address
// without a directory service.
//
// Parse is a pure transformation: it performs no I/O and starts nothing.
package topology
