package logger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const ansiReset = "\033[0m"

var levelStyles = map[string]struct{ tag, color string }{
	"trace": {"TRC", "\033[90m"},
	"debug": {"DBG", "\033[36m"},
	"info":  {"INF", "\033[32m"},
	"warn":  {"WRN", "\033[33m"},
	"error": {"ERR", "\033[31m"},
	"fatal": {"FTL", "\033[35m"},
}

// consoleWriter renders "15:04:05.000 INF filter message key:value".
func consoleWriter(cfg Config) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           cfg.writer(),
		TimeFormat:    "15:04:05.000",
		NoColor:       cfg.NoColor,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, FieldComponent, zerolog.MessageFieldName},
		FieldsExclude: []string{FieldComponent, FieldService},
		FormatLevel: func(i interface{}) string {
			lvl := fmt.Sprint(i)
			style, ok := levelStyles[lvl]
			if !ok {
				return strings.ToUpper(lvl)
			}
			if cfg.NoColor {
				return style.tag
			}
			return style.color + style.tag + ansiReset
		},
		FormatFieldValue: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + ":" },
	}
}
