// Package evtrack finds event handler leaks by counting add and remove calls.
//
// A Tracker keeps, for every object handlers are attached to, the number of
// registrations per (event name, handler identity). Objects are identified by
// reference and are never modified. Balanced add/remove sequences leave the
// registry empty; anything left over is a leak and shows up in Log and Report.
//
// Basic example:
//
//	tracker := evtrack.New(evtrack.WithName("chart-tests"))
//
//	tracker.Register(button, "click", onClick)
//	tracker.Register(chart, "redraw", onRedraw)
//	tracker.Unregister(button, "click", onClick)
//
//	tracker.Log(ctx)
//	// ----- registered events -----
//	// object: 1
//	//   redraw has 1 number of handlers registered
//
//	tracker.Reset() // between test cases
//
// Wrapping a host:
// A Monitor decorates the add/remove/fire primitives of an event host so that
// every add and remove is tracked and then passed through unchanged:
//
//	mon := evtrack.NewMonitor(emitter.New())
//	mon.AddEvent(series, "afterAnimate", handler)
//	mon.FireEvent(ctx, series, "afterAnimate", nil, nil)
//	mon.RemoveEvent(series, "afterAnimate", handler)
//
// Unregister optionality:
//   - Unregister(obj, "click", h): removes one registration of h
//   - Unregister(obj, "click", nil): removes every click handler
//   - Unregister(obj, "", nil): removes everything tracked for obj
//
// Diagnostics:
// Misuse never fails. Structural events (load, resize, ...) and pointer events
// (click, mousemove, ...) registered on objects that are not an Element, and
// unregistering objects that were never registered, are logged as warnings.
//
// Options:
//   - WithName: tracker name used in logs, metrics and reports
//   - WithLogger: log sink. Default is slog.Default()
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true
//   - WithTracing: enable/disable spans around Monitor.FireEvent. Default is true
//   - WithWarnRateLimit: limit warning lines per second
//   - WithSinks: receive reports on Flush and Close (see store, sink/nats, sink/kafka)
package evtrack
