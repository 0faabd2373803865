// Package batch provides the Batch type: handler registration, validated
// submission into a job queue, hooks, the event stream and the cooperative
// cancellation flag shared with the worker.
//
// A submission is all-or-nothing. Every input of every job is checked by the
// Validator before anything is enqueued; if any file is refused the whole
// submission fails with a *core.ValidationError listing each offending file.
package batch
