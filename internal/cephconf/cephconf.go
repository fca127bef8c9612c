// Package cephconf reads and writes the per-cluster Ceph configuration files.
package cephconf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrConfigMissing is returned when the cluster configuration file doesn't exist.
var ErrConfigMissing = errors.New("cluster config file does not exist")

// ErrMissingFSID is returned when the configuration doesn't set the cluster fsid.
var ErrMissingFSID = errors.New("cluster config file does not set fsid")

// ErrClusterNotFound is returned when no configuration matches the requested fsid.
var ErrClusterNotFound = errors.New("no cluster config matches fsid")

// Config is a parsed Ceph configuration file.
type Config struct {
	Path string
	FSID string

	MonInitialMembers []string
	MonHosts          []string

	// Monitors maps monitor IDs declared through [mon.<id>] sections to their settings.
	Monitors map[string]MonSection

	file *ini.File
}

// MonSection holds the settings of a [mon.<id>] section.
type MonSection struct {
	// Host is the short or fully qualified hostname the monitor runs on.
	Host string
	Addr string
}

// Path returns the location of the configuration file for the named cluster.
func Path(confDir string, clusterName string) string {
	return filepath.Join(confDir, clusterName+".conf")
}

// Load parses the configuration file at the given path.
func Load(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigMissing
		}

		return nil, err
	}

	f, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters: "=",
		AllowBooleanKeys:   true,
	}, path)
	if err != nil {
		return nil, err
	}

	c := &Config{
		Path:     path,
		Monitors: map[string]MonSection{},
		file:     f,
	}

	c.FSID = c.Get("global", "fsid")
	if c.FSID == "" {
		return nil, ErrMissingFSID
	}

	c.MonInitialMembers = splitList(c.Get("global", "mon_initial_members"))
	c.MonHosts = splitList(c.Get("global", "mon_host"))

	for _, section := range f.Sections() {
		id, ok := strings.CutPrefix(section.Name(), "mon.")
		if !ok || id == "" {
			continue
		}

		c.Monitors[id] = MonSection{
			Host: c.Get(section.Name(), "host"),
			Addr: c.Get(section.Name(), "mon_addr"),
		}
	}

	return c, nil
}

// Get returns the value of a key, accepting Ceph's interchangeable use of spaces,
// dashes and underscores in key names.
func (c *Config) Get(section string, key string) string {
	s, err := c.file.GetSection(section)
	if err != nil {
		return ""
	}

	want := normalizeKey(key)
	for _, k := range s.Keys() {
		if normalizeKey(k.Name()) == want {
			return strings.TrimSpace(k.String())
		}
	}

	return ""
}

// NameFromUUID returns the name of the cluster whose configuration sets the given fsid.
func NameFromUUID(confDir string, uuid string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(confDir, "*.conf"))
	if err != nil {
		return "", err
	}

	for _, path := range matches {
		c, err := Load(path)
		if err != nil {
			// Skip broken or unrelated files.
			continue
		}

		if c.FSID == uuid {
			return strings.TrimSuffix(filepath.Base(path), ".conf"), nil
		}
	}

	return "", ErrClusterNotFound
}

func normalizeKey(key string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(key)))
}

// splitList splits a comma or space separated list, keeping bracketed
// address vectors such as "[v2:10.0.0.1:3300,v1:10.0.0.1:6789]" intact.
func splitList(value string) []string {
	items := []string{}
	depth := 0
	current := strings.Builder{}

	flush := func() {
		item := strings.TrimSpace(current.String())
		if item != "" {
			items = append(items, item)
		}

		current.Reset()
	}

	for _, r := range value {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case (r == ',' || r == ' ' || r == '\t') && depth == 0:
			flush()

			continue
		}

		current.WriteRune(r)
	}

	flush()

	return items
}
