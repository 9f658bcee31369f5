package config

import (
	"strings"

	"github.com/spf13/cast"
)

// Settings holds strategy parameters. The engine never reads it. Keys
// match case-insensitively since viper folds them to lower case.
type Settings map[string]any

func (s Settings) lookup(key string) (any, bool) {
	if v, ok := s[key]; ok {
		return v, true
	}
	for k, v := range s {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func (s Settings) Has(key string) bool {
	_, ok := s.lookup(key)
	return ok
}

func (s Settings) Int(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

func (s Settings) Float(key string, def float64) float64 {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

func (s Settings) String(key, def string) string {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return str
}
