// Package storage provides GORM backed persistence for batches.
//
// This package includes:
//   - GormStorage: run and job history (core.Storage)
//   - GormQueue: a durable queue.JobQueue kept in the jobs table, so an
//     interrupted batch can be resumed by ID
//   - Open: connects to SQLite or PostgreSQL with pool settings applied
//
// Most users should import the root package github.com/jdziat/pdfbatch
// which provides NewGormStorage() and NewGormQueue().
package storage
