// Package logger provides structured logging for the media pipelines.
// Production invocations log JSON lines (one per record) so CloudWatch can index fields;
// local runs get a compact coloured format.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	formatJSON   = "json"
	formatPretty = "pretty"
)

// Logger wraps slog.Logger with pipeline helpers.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Writer      io.Writer
	Format      string
	Environment string
	Level       slog.Level
	AddSource   bool
	// Lambda drops the record time from JSON output; the runtime stamps every line.
	// Defaults to whether AWS_LAMBDA_FUNCTION_NAME is set.
	Lambda *bool
}

// New creates a new logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Format == "" {
		cfg.Format = formatPretty
		if cfg.Environment == "production" {
			cfg.Format = formatJSON
		}
	}
	inLambda := os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
	if cfg.Lambda != nil {
		inLambda = *cfg.Lambda
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				if inLambda && cfg.Format == formatJSON {
					return slog.Attr{}
				}
			case slog.SourceKey:
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}

	if cfg.Format == formatJSON {
		return &Logger{Logger: slog.New(slog.NewJSONHandler(cfg.Writer, opts))}
	}
	return &Logger{Logger: slog.New(NewPrettyHandler(cfg.Writer, opts))}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// ParseLevel converts a LOG_LEVEL value to slog.Level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	switch lower := strings.ToLower(strings.TrimSpace(level)); lower {
	case "warning":
		return slog.LevelWarn
	default:
		if err := l.UnmarshalText([]byte(lower)); err != nil {
			return slog.LevelInfo
		}
		return l
	}
}

// ForInvocation returns a logger tagged with the invocation identity.
func (l *Logger) ForInvocation(requestID, logGroup string) *Logger {
	return &Logger{Logger: l.With(
		slog.String("request_id", requestID),
		slog.String("log_group", logGroup),
	)}
}

// WithJob returns a logger tagged with a transcoding job and the status being handled.
func (l *Logger) WithJob(jobID, status string) *Logger {
	return &Logger{Logger: l.With(slog.String("job_id", jobID), slog.String("status", status))}
}

var levelStyles = map[slog.Level]struct{ label, color string }{
	slog.LevelDebug: {"DBG", "\033[35m"},
	slog.LevelInfo:  {"INF", "\033[32m"},
	slog.LevelWarn:  {"WRN", "\033[33m"},
	slog.LevelError: {"ERR", "\033[31m"},
}

const (
	ansiReset = "\033[0m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

// PrettyHandler writes one coloured line per record:
// time, level, message, then key=value attributes with group-qualified keys.
type PrettyHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	prefix string
	attrs  []string
}

// NewPrettyHandler creates a new pretty handler.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes the log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	style, ok := levelStyles[r.Level]
	if !ok {
		style.label, style.color = r.Level.String(), ""
	}
	b.WriteString(ansiDim + r.Time.Format("15:04:05") + ansiReset + " ")
	b.WriteString(style.color + style.label + ansiReset + " ")
	b.WriteString(r.Message)

	fields := h.attrs
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, h.render(a))
		return true
	})
	if len(fields) > 0 {
		b.WriteString(" " + ansiCyan + strings.Join(fields, " ") + ansiReset)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]string, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.render(a))
	}
	return &next
}

// WithGroup returns a new handler that prefixes attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *PrettyHandler) render(a slog.Attr) string {
	v := a.Value.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = v.String()
	}
	return h.prefix + a.Key + "=" + s
}
