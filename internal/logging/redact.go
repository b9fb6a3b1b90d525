package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// RedactedString logs only the length of val.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// RedactingEncoder masks credential-named fields and token-looking values.
type RedactingEncoder struct {
	zapcore.Encoder
	fields   map[string]bool
	patterns []*regexp.Regexp
}

// NewRedactingEncoder wraps base with cfg's rules.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	if !cfg.Enabled {
		return &RedactingEncoder{Encoder: base}, nil
	}

	fields := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		fields[strings.ToLower(f)] = true
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &RedactingEncoder{Encoder: base, fields: fields, patterns: patterns}, nil
}

// EncodeEntry masks the per-call fields. The wrapped encoder writes them to
// its own clone, so the Add* overrides only see fields added with With.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	masked, copied := fields, false
	for i, f := range fields {
		var repl string
		switch {
		case e.sensitive(f.Key) && !(f.Type == zapcore.StringType && strings.HasPrefix(f.String, "[REDACTED")):
			repl = "[REDACTED]"
		case f.Type == zapcore.StringType && !strings.HasPrefix(f.String, "[REDACTED") && e.matches(f.String):
			repl = "[REDACTED:pattern]"
		default:
			continue
		}
		if !copied {
			masked, copied = append([]zapcore.Field(nil), fields...), true
		}
		masked[i] = zap.String(f.Key, repl)
	}
	return e.Encoder.EncodeEntry(ent, masked)
}

func (e *RedactingEncoder) sensitive(key string) bool {
	return e.fields[strings.ToLower(key)]
}

// AddString masks by field name, then by value pattern.
// Values already passed through RedactedString are kept.
func (e *RedactingEncoder) AddString(key, val string) {
	switch {
	case strings.HasPrefix(val, "[REDACTED"):
		e.Encoder.AddString(key, val)
	case e.sensitive(key):
		e.Encoder.AddString(key, "[REDACTED]")
	case e.matches(val):
		e.Encoder.AddString(key, "[REDACTED:pattern]")
	default:
		e.Encoder.AddString(key, val)
	}
}

func (e *RedactingEncoder) matches(val string) bool {
	for _, re := range e.patterns {
		if re.MatchString(val) {
			return true
		}
	}
	return false
}

func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.sensitive(key) {
		e.Encoder.AddString(key, "[REDACTED]")
		return
	}
	e.Encoder.AddByteString(key, val)
}

func (e *RedactingEncoder) AddReflected(key string, val any) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, "[REDACTED]")
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, "[REDACTED]")
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

// Clone keeps the rules on child loggers.
func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), fields: e.fields, patterns: e.patterns}
}
