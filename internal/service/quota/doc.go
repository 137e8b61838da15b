// Package quota decides whether a user may perform a plan-limited action
// and records usage once the action succeeds.
//
// Limits come from a static, immutable plan table loaded at startup. Usage
// counters partition by billing period (the interval ending at the
// profile's current_period_end), not calendar month; a new period starts
// counting from zero. The advisory CheckUsage read is never trusted for
// admission on its own: Acquire performs an atomic conditional increment
// against the backing store, so two concurrent actions racing a limit of
// one cannot both succeed.
package quota
