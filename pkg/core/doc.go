// Package core provides the fundamental types and interfaces for the pdfbatch package.
//
// This package contains:
//   - Job and Run data models with GORM annotations
//   - Kind, JobStatus and Settings value types
//   - Storage interface defining the history persistence contract
//   - Event types for progress and lifecycle monitoring
//   - Error types for validation and job processing
//
// Most users should import the root package github.com/jdziat/pdfbatch
// instead of this package directly.
package core
