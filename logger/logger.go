package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the service name it was created for.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// New builds a logger from cfg after applying its defaults. An unknown
// level falls back to info.
func New(cfg Config) *Logger {
	cfg.ApplyDefaults()
	var zl zerolog.Logger
	if cfg.Format == FormatJSON {
		zl = zerolog.New(cfg.writer())
		if cfg.Timestamp {
			zl = zl.With().Timestamp().Logger()
		}
	} else {
		zl = zerolog.New(consoleWriter(cfg)).With().Timestamp().Logger()
	}
	if cfg.ServiceName != "" {
		zl = zl.With().Str(FieldService, cfg.ServiceName).Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}
	return &Logger{zl: zl.Level(parseLevel(cfg.Level, zerolog.InfoLevel)), service: cfg.ServiceName}
}

// NewWithWriter creates a JSON logger writing to w. Tests use it to inspect
// emitted entries.
func NewWithWriter(w io.Writer, level, serviceName string) *Logger {
	zl := zerolog.New(w).Level(parseLevel(level, zerolog.DebugLevel))
	return &Logger{zl: zl.With().Str(FieldService, serviceName).Logger(), service: serviceName}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func parseLevel(level string, fallback zerolog.Level) zerolog.Level {
	if level == "" {
		return fallback
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fallback
	}
	return lvl
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.with(l.zl.With().Str(FieldComponent, name))
}

// WithFields returns a logger that adds fields to every entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.zl.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return l.with(zc)
}

func (l *Logger) with(zc zerolog.Context) *Logger {
	return &Logger{zl: zc.Logger(), service: l.service}
}

// Service returns the service name the logger was created for.
func (l *Logger) Service() string { return l.service }

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

// emit writes error values as strings and everything else as is. A nil
// event means the level is disabled.
func emit(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	if event == nil {
		return
	}
	for _, fm := range fields {
		for k, v := range fm {
			if err, ok := v.(error); ok {
				event.AnErr(k, err)
				continue
			}
			event.Interface(k, v)
		}
	}
	event.Msg(msg)
}
