// Package component defines the lifecycle contract shared by the long-lived
// parts of a greenscreen process.
//
// A Component is started in registration order and stopped in reverse
// order by a Registry. The filter factory is the main implementation; the
// CLI registers it alongside telemetry so shutdown releases GPU-side
// resources before exporters flush.
package component
