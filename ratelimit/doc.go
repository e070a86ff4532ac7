// Package ratelimit provides a per-key sliding-window rate limiter.
//
// Each key keeps the timestamps of the operations admitted in the trailing
// window (one second by default). Wait admits immediately while the key is
// under its limit and otherwise sleeps until the oldest timestamp ages out.
// Stale timestamps are dropped lazily on the next access to the key.
//
// # Usage
//
//	limiter := ratelimit.New(ratelimit.DefaultLimit)
//
//	if err := limiter.Wait(ctx, "adobe-cli"); err != nil {
//		return err
//	}
//	out, err := runner.Run(ctx, cmd)
//
// # Zero limit
//
// A limiter built with a limit of zero never admits. Wait then blocks until its
// context is done, so callers must pass a cancellable context.
package ratelimit
