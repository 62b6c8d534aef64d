// Package shutdown coordinates graceful process termination.
//
// Hooks registered with OnShutdown run in reverse registration order once
// SIGINT or SIGTERM arrives or the parent context is cancelled, each
// bounded by the handler's timeout.
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return conn.Disconnect() })
//	err := h.Wait(ctx)
package shutdown
