package keyring

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

// Entry is a single entity within a keyring file.
type Entry struct {
	Entity string
	Key    string
	Caps   map[string]string
}

// Render returns the keyring text for a single entity.
func Render(entity string, secret string, caps map[string]string) string {
	sb := strings.Builder{}

	_, _ = fmt.Fprintf(&sb, "[%s]\n\tkey = %s\n", entity, secret)

	subsystems := make([]string, 0, len(caps))
	for subsystem := range caps {
		subsystems = append(subsystems, subsystem)
	}

	slices.Sort(subsystems)

	for _, subsystem := range subsystems {
		_, _ = fmt.Fprintf(&sb, "\tcaps %s = \"%s\"\n", subsystem, caps[subsystem])
	}

	return sb.String()
}

// Parse reads every entity from keyring text.
func Parse(content []byte) ([]Entry, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters: "=",
		AllowBooleanKeys:   true,
	}, content)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}

	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}

		entry := Entry{
			Entity: section.Name(),
			Caps:   map[string]string{},
		}

		for _, k := range section.Keys() {
			name := strings.Join(strings.Fields(k.Name()), " ")
			value := strings.Trim(strings.TrimSpace(k.String()), `"`)

			if name == "key" {
				entry.Key = value

				continue
			}

			subsystem, ok := strings.CutPrefix(name, "caps ")
			if ok {
				entry.Caps[subsystem] = value
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
