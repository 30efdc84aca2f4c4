// Package connection owns the lifecycle of the single link to the
// companion device.
//
// The Manager is the only place ConnectionState and the current link
// Handle change. Every transition runs under one critical section and is
// published to subscribers before the section is released, so observers
// see transitions in the order they happened.
//
// # States
//
//	Disconnected --connect--> Connecting --established--> Connected
//	     ^                        |                            |
//	     +-------- failure -------+------ loss / disconnect ---+
//
// A connect request while Connecting or Connected tears the current work
// down first and is otherwise handled like a connect from Disconnected.
//
// # Single Flight
//
// Each connect request bumps a generation counter and cancels the
// previous attempt. The new attempt waits for the previous one to finish
// before calling the establisher, and a result whose generation is stale
// is closed and discarded.
//
// # Supervision
//
// While Connected a supervisor polls Handle.IsOpen at a fixed interval
// (1s by default). A closed handle, or a failed write in the sender loop,
// moves the manager to Disconnected with reason LinkLost. With the "once"
// reconnect policy a fresh connect request for the same endpoint is then
// queued to the reconnect loop; it runs as an independent unit of work and
// is dropped if any newer request arrived meanwhile.
//
// # Delivery
//
// Enqueue never blocks. A single sender loop pops messages in order and
// writes them only while Connected. Messages popped while not connected
// are dropped; a message whose write fails is dropped and the link is
// declared lost.
package connection
