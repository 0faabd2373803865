// Package security provides validation, sanitization, and limits for the pdfbatch package.
//
// This package includes:
//   - Error message sanitization before reasons are stored or displayed
//   - Clamping of retry budgets to a hard limit
//   - Password strength checks for the encrypt operation
//   - Limits on the number of inputs a single job may carry
//
// Most users should import the root package github.com/jdziat/pdfbatch
// which re-exports these functions.
package security
