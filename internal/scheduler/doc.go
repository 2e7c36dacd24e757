// Package scheduler drives the collect → aggregate → publish cycle on a
// fixed interval. One background goroutine runs cycles serially; failures
// are caught and counted at this boundary so the process never exits over a
// single bad cycle.
package scheduler
