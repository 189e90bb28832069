// Package threaded decouples a sink from the goroutine that feeds it.
//
// A Wrapper runs optional preparation work synchronously and hands the
// actual processing to a Scheduler, returning as soon as the task was
// accepted. GoScheduler starts one goroutine per task; Pool runs tasks on a
// fixed number of workers behind a bounded queue and refuses work with
// flow.ErrQueueFull when that queue is at capacity.
//
// SourceWrapper is the producing counterpart: each Trigger schedules one
// create-and-deliver step.
package threaded
