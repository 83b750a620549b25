// Package eventpipe is the ERP event processing core: validation,
// routing, batching, and metrics for operational domain events.
//
// The pipeline receives product, inventory, sales, purchase, and
// transfer events pushed by an external ERP through webhook-style
// channels. Events flow through the batching gateway into the processor,
// which validates them, dispatches them to per-channel handler groups,
// collects triggered actions for downstream subsystems, and records
// metrics into the in-memory collector.
//
// The Service type in this package is the boundary the calling layer
// (HTTP routing, tenant management) talks to. It enforces the tenant
// check on every operation and composes the four components:
//
//	svc, err := eventpipe.New(config.Default())
//	if err != nil { ... }
//	defer svc.Shutdown(context.Background())
//
//	res := svc.OnSalesEvent(ctx, evt)
//
// The pipeline owns no persisted state: events are transient, and the
// metrics history stores projections with bounded, time-limited
// retention.
package eventpipe
