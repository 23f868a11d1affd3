// Package async runs independent tasks concurrently.
//
// [RunParallel] starts every task, waits for all of them and joins their
// errors in task order. The doctor checks and chart verification use it.
package async
