// Package scanconfig implements Scanarium's two-level `section.key`
// configuration namespace, backed by TOML instead of the
// original's INI, with an optional override file whose sections take
// precedence over the base config.
package scanconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// Kind identifies the coercion a lookup applies to the raw string/value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBoolean
)

// Config is a merged base + override TOML document, both parsed into a
// generic `map[string]map[string]any` so lookups can apply kind coercion
// uniformly regardless of how the underlying library decoded a literal.
type Config struct {
	sections map[string]map[string]any
	dirAbs   string
}

// Load parses baseFile and, if overrideFile is non-empty, merges it on top
// section-by-section (override wins key-by-key within a shared section).
func Load(baseFile, overrideFile string) (*Config, error) {
	c := &Config{sections: map[string]map[string]any{}}
	if err := c.mergeFile(baseFile); err != nil {
		return nil, err
	}
	if overrideFile != "" {
		if err := c.mergeFile(overrideFile); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Config) mergeFile(path string) error {
	var doc map[string]map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return scanerr.New(scanerr.ConfigValue,
			"Failed to parse config file {file_name}: {error}",
			map[string]any{"file_name": path, "error": err.Error()})
	}
	for section, kv := range doc {
		dst, ok := c.sections[section]
		if !ok {
			dst = map[string]any{}
			c.sections[section] = dst
		}
		for k, v := range kv {
			dst[k] = v
		}
	}
	return nil
}

// SetConfigDir records the directory the config file(s) were loaded from,
// so `%CONF_DIR%` expansion has somewhere to point.
func (c *Config) SetConfigDir(dir string) { c.dirAbs = dir }

// ConfigDirAbs returns the directory configured via SetConfigDir.
func (c *Config) ConfigDirAbs() string { return c.dirAbs }

// Option configures a single Get call.
type Option func(*lookupOpts)

type lookupOpts struct {
	kind        Kind
	allowEmpty  bool
	allowMiss   bool
	hasDefault  bool
	defaultVal  any
}

func WithKind(k Kind) Option    { return func(o *lookupOpts) { o.kind = k } }
func AllowEmpty() Option        { return func(o *lookupOpts) { o.allowEmpty = true } }
func AllowMissing() Option      { return func(o *lookupOpts) { o.allowMiss = true } }
func WithDefault(v any) Option {
	return func(o *lookupOpts) { o.hasDefault = true; o.defaultVal = v }
}

// Get looks up section.key, applying kind coercion and the allow-empty /
// allow-missing / default rules. Unknown keys without AllowMissing() fail
// with ConfigMissing.
func (c *Config) Get(section, key string, opts ...Option) (any, error) {
	o := &lookupOpts{kind: KindString}
	for _, opt := range opts {
		opt(o)
	}

	raw, ok := c.lookup(section, key)
	if !ok {
		if o.hasDefault {
			return o.defaultVal, nil
		}
		if o.allowMiss {
			return zeroFor(o.kind), nil
		}
		return nil, scanerr.New(scanerr.ConfigMissing,
			"Unknown configuration key \"{section}.{key}\"",
			map[string]any{"section": section, "key": key})
	}

	str, isStr := raw.(string)
	if isStr && str == "" {
		if o.allowEmpty {
			return emptyFor(o.kind), nil
		}
		return nil, scanerr.New(scanerr.ConfigValue,
			"Configuration key \"{section}.{key}\" must not be empty",
			map[string]any{"section": section, "key": key})
	}

	return coerce(raw, o.kind, section, key)
}

// GetString/GetInt/GetFloat/GetBool are typed convenience wrappers used
// pervasively by every component in place of repeated type assertions.
func (c *Config) GetString(section, key string, opts ...Option) (string, error) {
	v, err := c.Get(section, key, append(opts, WithKind(KindString))...)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return v.(string), nil
}

func (c *Config) GetInt(section, key string, opts ...Option) (int, error) {
	v, err := c.Get(section, key, append(opts, WithKind(KindInt))...)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return v.(int), nil
}

func (c *Config) GetFloat(section, key string, opts ...Option) (float64, error) {
	v, err := c.Get(section, key, append(opts, WithKind(KindFloat))...)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return v.(float64), nil
}

func (c *Config) GetBool(section, key string, opts ...Option) (bool, error) {
	v, err := c.Get(section, key, append(opts, WithKind(KindBoolean))...)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	return v.(bool), nil
}

// Keys returns every key configured within section, used by components that
// enumerate `permit_file_type_<fmt>`-style key families.
func (c *Config) Keys(section string) []string {
	kv, ok := c.sections[section]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	return keys
}

func (c *Config) lookup(section, key string) (any, bool) {
	kv, ok := c.sections[section]
	if !ok {
		return nil, false
	}
	v, ok := kv[key]
	return v, ok
}

func zeroFor(k Kind) any {
	switch k {
	case KindInt:
		return 0
	case KindFloat:
		return 0.0
	case KindBoolean:
		return false
	default:
		return nil
	}
}

func emptyFor(k Kind) any {
	switch k {
	case KindString:
		return ""
	default:
		return zeroFor(k)
	}
}

func coerce(raw any, kind Kind, section, key string) (any, error) {
	switch kind {
	case KindString:
		return toString(raw), nil
	case KindInt:
		switch v := raw.(type) {
		case int64:
			return int(v), nil
		case int:
			return v, nil
		case float64:
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, valueErr(section, key, raw)
			}
			return n, nil
		}
	case KindFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, valueErr(section, key, raw)
			}
			return f, nil
		}
	case KindBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "yes", "true", "1", "on":
				return true, nil
			case "no", "false", "0", "off", "":
				return false, nil
			}
		}
	}
	return nil, valueErr(section, key, raw)
}

func toString(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", raw)
}

func valueErr(section, key string, raw any) error {
	return scanerr.New(scanerr.ConfigValue,
		"Configuration key \"{section}.{key}\" has an invalid value \"{value}\"",
		map[string]any{"section": section, "key": key, "value": raw})
}
