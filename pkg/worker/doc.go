// Package worker provides the Worker type: the single background consumer
// of a batch queue.
//
// This package includes:
//   - Worker: dequeues jobs one at a time and drives the retry state machine
//   - WorkerOption: configuration options for workers
//   - RetryConfig: backoff used for history storage writes
//
// Most users should import the root package github.com/jdziat/pdfbatch
// which creates workers through pdfbatch.NewWorker.
package worker
