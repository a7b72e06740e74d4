// Package process runs short-lived subprocesses with context cancellation
// and captured output. Opener uses it to launch the system browser.
package process
