// Package session binds the CRAG pipeline to one loaded instrument.
//
// A Manager fetches the documents of a ticker, indexes them into a fresh
// store and publishes the result as the current Session. Queries snapshot
// the current session and run without holding any lock, so a concurrent
// Setup never disturbs a query in flight.
package session
