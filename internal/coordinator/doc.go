// Package coordinator owns the two panel states of the dual-pane browser
// and sequences every request and response that touches them.
//
// A Coordinator pairs one dispatch.Dispatcher with a Local and a Remote
// panel.State. The presentation layer drives it with lifecycle events
// (Created, Resized, Closing, Destroying) and navigation requests; the
// Delegate performs listings and reports results through AddDriveItem,
// AddDirectoryItem, CompleteRequest and FailRequest, each tagged with the
// panel.Ticket of the request it answers. Each of those calls,
// whatever goroutine it comes from, becomes a task on the dispatcher, so the
// panel states are only ever touched by one goroutine and need no locks.
//
// Flow on startup:
//
//	c := coordinator.New(delegate, presenter, coordinator.Options{})
//	if err := c.Start(); err != nil { ... }   // presenter.Init on the worker
//	c.HandleEvent(coordinator.Created{})      // one drive request per panel
//	...
//	c.HandleEvent(coordinator.Destroying{})
//	c.Close()                                 // discards the queue, tears down, joins
//
// Each panel has at most one outstanding request; a second request issued
// while one is pending is absorbed by it. A listing ends when the Delegate
// calls CompleteRequest or FailRequest, or when the request timeout fires.
// A timed-out request is reported to the Delegate as abandoned, and results
// whose ticket is not the panel's pending request are dropped, so a slow
// answer never leaks into the listing that replaced it. Responses that
// arrive after Close are dropped too.
//
// The Delegate must outlive the Coordinator. Calls with an invalid
// panel.Kind panic: they are programming errors, not runtime conditions.
package coordinator
