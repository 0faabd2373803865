// Package observer turns batch events into user-facing output.
//
// A Subscription is taken before the worker starts so that no event is
// missed, then forwards every event to one or more observers:
//
//	sub := observer.Subscribe(b)
//	defer sub.Close()
//	go sub.Run(ctx, observer.NewLog(logger), observer.NewProgressBar(os.Stderr))
//
// Log writes one structured line per event, ProgressBar drives a terminal
// bar, and RenderSummary, RenderRuns and RenderJobs print styled reports.
package observer
