package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/Graylog2/go-gelf.v2/gelf"
)

// MessageWriter sends GELF messages. *gelf.UDPWriter and *gelf.TCPWriter
// satisfy it.
type MessageWriter interface {
	WriteMessage(m *gelf.Message) error
	Close() error
}

// Syslog severities used by GELF.
const (
	syslogCritical int32 = 2
	syslogError    int32 = 3
	syslogWarning  int32 = 4
	syslogInfo     int32 = 6
	syslogDebug    int32 = 7
)

func dialGELF(opts GraylogOptions) (MessageWriter, error) {
	switch strings.ToLower(opts.Protocol) {
	case "", "udp":
		w, err := gelf.NewUDPWriter(opts.Address)
		if err != nil {
			return nil, fmt.Errorf("dial graylog udp %s: %w", opts.Address, err)
		}
		return w, nil
	case "tcp":
		w, err := gelf.NewTCPWriter(opts.Address)
		if err != nil {
			return nil, fmt.Errorf("dial graylog tcp %s: %w", opts.Address, err)
		}
		return w, nil
	default:
		return nil, ConfigError{Field: "graylog.protocol", Value: opts.Protocol, Cause: ErrUnknownProtocol}
	}
}

// gelfHandler is a slog.Handler that turns records into GELF messages.
// Attribute keys become additional fields with a leading underscore and
// groups are flattened with "_".
type gelfHandler struct {
	w        MessageWriter
	level    slog.Leveler
	host     string
	facility string
	prefix   string
	extra    map[string]any
}

func newGELFHandler(w MessageWriter, level slog.Leveler, opts GraylogOptions) *gelfHandler {
	host := opts.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	return &gelfHandler{
		w:        w,
		level:    level,
		host:     host,
		facility: opts.Facility,
		extra:    make(map[string]any),
	}
}

func (h *gelfHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *gelfHandler) Handle(_ context.Context, r slog.Record) error {
	short, full := r.Message, ""
	if i := strings.IndexByte(short, '\n'); i >= 0 {
		short, full = short[:i], r.Message
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	extra := make(map[string]any, len(h.extra)+r.NumAttrs()+1)
	for k, v := range h.extra {
		extra[k] = v
	}
	extra["_level_name"] = r.Level.String()

	r.Attrs(func(a slog.Attr) bool {
		addAttr(extra, h.prefix, a)
		return true
	})

	return h.w.WriteMessage(&gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    short,
		Full:     full,
		TimeUnix: float64(ts.UnixNano()) / float64(time.Second),
		Level:    syslogLevel(r.Level),
		Facility: h.facility,
		Extra:    extra,
	})
}

func (h *gelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	clone := h.clone()
	for _, a := range attrs {
		addAttr(clone.extra, clone.prefix, a)
	}
	return clone
}

func (h *gelfHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := h.clone()
	clone.prefix = h.prefix + name + "_"
	return clone
}

func (h *gelfHandler) clone() *gelfHandler {
	extra := make(map[string]any, len(h.extra))
	for k, v := range h.extra {
		extra[k] = v
	}

	c := *h
	c.extra = extra
	return &c
}

func addAttr(extra map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "_"
		}
		for _, ga := range a.Value.Group() {
			addAttr(extra, groupPrefix, ga)
		}
		return
	}

	extra[fieldName(prefix+a.Key)] = fieldValue(a.Value)
}

// fieldName maps an attribute key to a GELF additional field name.
// "_id" is reserved by GELF.
func fieldName(key string) string {
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, key)

	name := "_" + key
	if name == "_id" {
		return "_id_"
	}
	return name
}

func fieldValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
}

func syslogLevel(level slog.Level) int32 {
	switch {
	case level >= slog.LevelError+4:
		return syslogCritical
	case level >= slog.LevelError:
		return syslogError
	case level >= slog.LevelWarn:
		return syslogWarning
	case level >= slog.LevelInfo:
		return syslogInfo
	default:
		return syslogDebug
	}
}
