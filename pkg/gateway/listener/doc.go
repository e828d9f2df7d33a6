// Package listener implements the gateway's accept pipeline: one Listener
// per configured TCP address, all feeding a single bounded queue consumed
// by the supervisor.
//
// The queue capacity is the sole backpressure knob. When per-connection
// work falls behind, the queue fills, accept loops block, and the kernel's
// listen backlog absorbs or refuses new connections; memory use stays
// bounded no matter the connection rate.
package listener
