// Package reconcile keeps the local working replica consistent with the
// canonical upstream repository.
//
// Two independent timers share one critical section: a short-interval
// reconciliation timer classifies the local/canonical relationship and
// resolves divergence per the configured dominance policy, while a
// longer-interval commit/push timer stages locally produced output and
// pushes it upstream. A startup pass unconditionally adopts canonical state
// so a freshly started instance never fights over history it has not seen.
package reconcile
