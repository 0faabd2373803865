// Package pdf is the PDF collaborator used by operation handlers.
//
// Engine wraps the document operations the batch needs (merge, page
// extraction, watermarking, encryption, optimization) behind an interface so
// handlers can be tested without real documents. NewEngine returns the
// pdfcpu backed implementation.
//
// Validator performs the admission check run on every input before a job is
// accepted.
package pdf
