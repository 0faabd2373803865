// Package queue provides the job queue contract and the in-memory deque used
// by the pdfbatch worker.
//
// The queue is FIFO for fresh jobs. Retried jobs are put back at the front so
// they run before any job submitted after them. There is exactly one consumer.
//
// Most users should import the root package github.com/jdziat/pdfbatch.
package queue
