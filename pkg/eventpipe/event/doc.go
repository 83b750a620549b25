// Package event defines the ERP event envelope and taxonomy for eventpipe.
//
// Every occurrence reported by the ERP arrives as an Event: a typed
// envelope carrying the tenant identity, an occurrence timestamp, and a
// channel-specific payload. The taxonomy is closed - each event type maps
// to exactly one of four ingestion channels (inventory, sales, purchase,
// transfer) and carries a fixed processing priority used to order batches.
//
// Events are transient: this package gives them shape and identity but
// never stores them.
package event
