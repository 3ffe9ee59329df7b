// Package logger builds the server's slog logger: JSON in production, colored
// single-line text everywhere else.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	formatJSON   = "json"
	formatPretty = "pretty"
)

// ComponentKey tags records with the subsystem that logged them.
const ComponentKey = "component"

const (
	ansiReset   = "\033[0m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiBold    = "\033[1m"
	ansiDim     = "\033[2m"
)

// Logger is the application logger handed out by the DI container.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Writer      io.Writer
	Format      string // "json" or "pretty"; empty picks by Environment
	Environment string
	Level       slog.Level
	AddSource   bool
}

// New creates a logger. Without an explicit format, production logs JSON.
func New(cfg Config) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	format := cfg.Format
	if format == "" {
		format = formatPretty
		if cfg.Environment == "production" {
			format = formatJSON
		}
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					src.File = filepath.Base(src.File)
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if format == formatJSON {
		handler = slog.NewJSONHandler(cfg.Writer, opts)
	} else {
		handler = NewPrettyHandler(cfg.Writer, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel converts a config string to a level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a child logger tagged with a subsystem name.
func (l *Logger) Component(name string) *slog.Logger {
	return l.With(slog.String(ComponentKey, name))
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// PrettyHandler writes one colored line per record:
//
//	15:04:05 INF [assembler] Narration merged segments=3 duration=4.5s
//
// The component attribute is lifted in front of the message and error
// attributes are highlighted. Attributes added under a group are prefixed
// with the group path, as the JSON handler nests them.
type PrettyHandler struct {
	opts      slog.HandlerOptions
	mu        *sync.Mutex
	w         io.Writer
	component string
	preset    []byte // attrs from WithAttrs, already formatted
	prefix    string // open group path, "a.b."
}

// NewPrettyHandler creates a pretty handler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled reports whether records at level are written.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

// Handle formats and writes one record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)

	buf = append(buf, ansiDim...)
	buf = r.Time.AppendFormat(buf, "15:04:05")
	buf = append(buf, ansiReset...)
	buf = append(buf, ' ')

	label, color := levelLabel(r.Level)
	buf = append(buf, color...)
	buf = append(buf, label...)
	buf = append(buf, ansiReset...)
	buf = append(buf, ' ')

	component := h.component
	var attrs []byte
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == ComponentKey {
			component = a.Value.String()
			return true
		}
		attrs = h.appendAttr(attrs, h.prefix, a)
		return true
	})

	if component != "" {
		buf = append(buf, ansiBlue...)
		buf = append(buf, '[')
		buf = append(buf, component...)
		buf = append(buf, "] "...)
		buf = append(buf, ansiReset...)
	}

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf = append(buf, ansiDim...)
		buf = append(buf, filepath.Base(frame.File)...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(frame.Line), 10)
		buf = append(buf, ansiReset...)
		buf = append(buf, ' ')
	}

	buf = append(buf, ansiBold...)
	buf = append(buf, r.Message...)
	buf = append(buf, ansiReset...)
	buf = append(buf, h.preset...)
	buf = append(buf, attrs...)
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a handler that writes attrs on every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		if h.prefix == "" && a.Key == ComponentKey {
			c.component = a.Value.String()
			continue
		}
		c.preset = c.appendAttr(c.preset, c.prefix, a)
	}
	return c
}

// WithGroup returns a handler that prefixes later attributes with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix = h.prefix + name + "."
	return c
}

func (h *PrettyHandler) clone() *PrettyHandler {
	c := *h
	c.preset = append([]byte(nil), h.preset...)
	return &c
}

// appendAttr writes " key=value", flattening groups into dotted keys.
func (h *PrettyHandler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(nil, a)
	}
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return buf
		}
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range group {
			buf = h.appendAttr(buf, prefix, ga)
		}
		return buf
	}

	color := ansiCyan
	if a.Key == "error" || a.Key == "err" {
		color = ansiRed
	}
	buf = append(buf, ' ')
	buf = append(buf, color...)
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	buf = append(buf, formatValue(a.Value)...)
	buf = append(buf, ansiReset...)
	return buf
}

func levelLabel(level slog.Level) (label, color string) {
	switch {
	case level >= slog.LevelError:
		return "ERR", ansiRed
	case level >= slog.LevelWarn:
		return "WRN", ansiYellow
	case level >= slog.LevelInfo:
		return "INF", ansiGreen
	default:
		return "DBG", ansiMagenta
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	default:
		return v.String()
	}
}
