// Package schedule provides schedules for recurring batch runs.
//
// This package includes:
//   - Schedule interface for defining run times
//   - Func to adapt a plain function
//   - Every() for fixed-interval schedules
//   - Daily() for daily schedules at a specific time
//   - Weekly() for weekly schedules on a specific day and time
//   - Cron() and MustCron() for cron expression-based schedules
//   - Loop() to invoke a function at each scheduled time
//
// The pdfbatch CLI uses Cron and Loop for "run --cron".
package schedule
