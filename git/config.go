package git

import (
	"bytes"
	"maps"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/config"
	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// configKey is a parsed "section[.subsection].key" name.
type configKey struct {
	section    string
	subsection string
	key        string
}

// parseConfigKey splits a dotted configuration name. The subsection is
// everything between the first and the last dot and may itself contain
// dots; section and key are case-insensitive and returned lower-cased.
func parseConfigKey(name string) (configKey, error) {
	first := strings.IndexByte(name, '.')
	last := strings.LastIndexByte(name, '.')
	if first <= 0 || last == len(name)-1 {
		return configKey{}, invalidInput("invalid configuration key %q: expected section.key", name)
	}

	k := configKey{
		section: strings.ToLower(name[:first]),
		key:     strings.ToLower(name[last+1:]),
	}
	if first != last {
		k.subsection = name[first+1 : last]
	}

	if !isConfigName(k.section, true) {
		return configKey{}, invalidInput("invalid configuration section in %q", name)
	}
	if !isConfigName(k.key, false) {
		return configKey{}, invalidInput("invalid configuration key in %q", name)
	}
	if strings.ContainsAny(k.subsection, "\n\x00") {
		return configKey{}, invalidInput("invalid configuration subsection in %q", name)
	}
	return k, nil
}

// isConfigName reports whether s is a valid section or key name:
// alphanumerics and '-', keys starting with a letter.
func isConfigName(s string, section bool) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9', r == '-':
			if i == 0 && !section {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// String renders the key in dotted form.
func (k configKey) String() string {
	if k.subsection == "" {
		return k.section + "." + k.key
	}
	return k.section + "." + k.subsection + "." + k.key
}

// SetConfig writes the given values to the repository's local
// configuration. Keys use git's dotted form ("user.name",
// "remote.origin.url", "branch.feature/x.merge"). Keys are applied in
// sorted order and existing values of a key are replaced.
//
// Every key is validated before the repository is opened; an invalid key
// fails the call without writing anything.
//
// Examples:
//
//	err := repo.SetConfig(map[string]string{
//	    "user.name":  "Jane Doe",
//	    "user.email": "jane@example.com",
//	})
func (r *Repository) SetConfig(vars map[string]string) error {
	names := slices.Sorted(maps.Keys(vars))
	keys := make([]configKey, 0, len(names))
	for _, name := range names {
		k, err := parseConfigKey(name)
		if err != nil {
			return err
		}
		if strings.ContainsRune(vars[name], '\n') {
			return invalidInput("value of %q contains a newline", name)
		}
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		return nil
	}

	return r.withHandle(func(h *handle) error {
		cfg, err := h.storage.Config()
		if err != nil {
			return wrapError(err, "failed to read configuration")
		}

		for i, k := range keys {
			cfg.Raw.SetOption(k.section, k.subsection, k.key, vars[names[i]])
		}

		// Marshal would overwrite the raw values with the stale typed
		// fields, so the raw form is re-parsed before storing.
		var buf bytes.Buffer
		if err := format.NewEncoder(&buf).Encode(cfg.Raw); err != nil {
			return wrapError(err, "failed to encode configuration")
		}

		updated := config.NewConfig()
		if err := updated.Unmarshal(buf.Bytes()); err != nil {
			return wrapError(err, "failed to parse configuration")
		}

		if err := h.storage.SetConfig(updated); err != nil {
			return wrapError(err, "failed to write configuration")
		}

		h.logger.Debug("updated configuration", "keys", len(keys))
		return nil
	})
}

// Config returns the repository's local configuration flattened to dotted
// keys. For multi-valued keys the last value wins, as with
// "git config --get".
func (r *Repository) Config() (map[string]string, error) {
	var values map[string]string
	err := r.withHandle(func(h *handle) error {
		cfg, err := h.storage.Config()
		if err != nil {
			return wrapError(err, "failed to read configuration")
		}
		values = flattenConfig(cfg.Raw)
		return nil
	})
	return values, err
}

func flattenConfig(raw *format.Config) map[string]string {
	values := make(map[string]string)
	for _, s := range raw.Sections {
		section := strings.ToLower(s.Name)
		for _, o := range s.Options {
			values[configKey{section: section, key: strings.ToLower(o.Key)}.String()] = o.Value
		}
		for _, sub := range s.Subsections {
			for _, o := range sub.Options {
				values[configKey{section: section, subsection: sub.Name, key: strings.ToLower(o.Key)}.String()] = o.Value
			}
		}
	}
	return values
}
