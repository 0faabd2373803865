// Package handlers implements the batch operations: combine, split,
// watermark, encrypt and compress.
//
// Each handler iterates its inputs in order, calls jobctx.Checkpoint before
// every file and every page, reports item progress through jobctx.ReportItem
// and delegates the document work to a pdf.Engine. A missing input fails the
// job permanently; invalid settings do the same.
package handlers
