// Package threadpool runs background work on a fixed set of workers.
//
// Work is pushed with a value that is copied into the task when it is
// spawned, so the caller never shares mutable state with the worker. Each
// Task carries a one-shot result the owner can poll with Done or block on
// with Await. A task that has not started yet can be taken back with
// Pool.Pop; a running task is never interrupted.
//
//	task, err := threadpool.Push(pool, func(ctx context.Context, kind provider.Kind) error {
//	    return load(ctx, kind)
//	}, kind)
//	...
//	if pool.Pop(task) {
//	    // never ran
//	}
//	err = task.Await()
package threadpool
