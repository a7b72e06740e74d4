// Package logger provides structured logging for the greenscreen filter
// using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Fields are passed as maps so call sites stay
// independent of the underlying zerolog event API.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("filter")
//	log.Info("provider switched", logger.Fields(logger.FieldFrom, "n/a", logger.FieldTo, "remote"))
package logger
