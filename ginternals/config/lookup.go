package config

import (
	"strconv"
	"strings"
)

// Get returns the value of key under the given section, looking at the
// local config file first, then falling back to the aggregated global
// config files.
// ok is false if the key has no value anywhere.
func (cfg *Config) Get(section, key string) (value string, ok bool) {
	return cfg.fromFiles.get(section, "", key)
}

// GetSubsection is identical to Get but looks up a keyed subsection,
// e.g. the "origin" in [remote "origin"].
func (cfg *Config) GetSubsection(section, subsection, key string) (value string, ok bool) {
	return cfg.fromFiles.get(section, subsection, key)
}

// GetBool returns the boolean interpretation of a key's value, following
// git's rules: "true", "yes", "on", "1" and the empty string are true;
// "false", "no", "off", "0" are false.
func (cfg *Config) GetBool(section, key string) (value bool, ok bool) {
	raw, found := cfg.Get(section, key)
	if !found {
		return false, false
	}
	b, err := parseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}

// GetInt returns the integer interpretation of a key's value. Git allows
// a trailing unit suffix of k, m, or g (case-insensitive) to scale the
// value by 1024, 1024*1024, or 1024*1024*1024 respectively.
func (cfg *Config) GetInt(section, key string) (value int64, ok bool) {
	raw, found := cfg.Get(section, key)
	if !found {
		return 0, false
	}
	n, err := parseIntWithSuffix(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "on", "1", "":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return strconv.ParseBool(raw)
	}
}

func parseIntWithSuffix(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, strconv.ErrSyntax
	}
	mult := int64(1)
	switch raw[len(raw)-1] {
	case 'k', 'K':
		mult = 1024
		raw = raw[:len(raw)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		raw = raw[:len(raw)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		raw = raw[:len(raw)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}

// get looks a key up in the local config first, then the aggregated
// global config files. subsection may be empty for a plain section.
func (cfg *FileAggregate) get(section, subsection, key string) (value string, ok bool) {
	sec := sectionName(section, subsection)
	if cfg.local.Section(sec).HasKey(key) {
		return cfg.local.Section(sec).Key(key).String(), true
	}
	if cfg.global.Section(sec).HasKey(key) {
		return cfg.global.Section(sec).Key(key).String(), true
	}
	return "", false
}

func sectionName(section, subsection string) string {
	if subsection == "" {
		return section
	}
	return section + ` "` + subsection + `"`
}
