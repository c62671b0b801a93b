// Package supervisor keeps a Runner alive by restarting it after every return.
//
// Failures are logged and swallowed; the delay between attempts comes from a
// RestartPolicy (a constant 500ms by default). Run only returns when its context
// is cancelled or a finite MaxAttempts is exhausted.
package supervisor
