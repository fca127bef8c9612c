package api

// KeyringType identifies the daemon identity a keyring belongs to.
type KeyringType string

// Known keyring types.
const (
	KeyringTypeAdmin KeyringType = "admin"
	KeyringTypeMon   KeyringType = "mon"
	KeyringTypeOSD   KeyringType = "osd"
	KeyringTypeMDS   KeyringType = "mds"
	KeyringTypeRGW   KeyringType = "rgw"
	KeyringTypeMGR   KeyringType = "mgr"
)

// KeyringTypes lists every supported keyring type.
var KeyringTypes = []KeyringType{
	KeyringTypeAdmin,
	KeyringTypeMon,
	KeyringTypeOSD,
	KeyringTypeMDS,
	KeyringTypeRGW,
	KeyringTypeMGR,
}

// Keyring represents a single keyring as stored on the local system.
type Keyring struct {
	Type    KeyringType       `json:"type"              yaml:"type"`
	Entity  string            `json:"entity"            yaml:"entity"`
	Path    string            `json:"path"              yaml:"path"`
	Secret  string            `json:"secret,omitempty"  yaml:"secret,omitempty"`
	Caps    map[string]string `json:"caps,omitempty"    yaml:"caps,omitempty"`
	Content string            `json:"content,omitempty" yaml:"content,omitempty"`
}

// KeyringPresence reports whether a given keyring type exists locally.
type KeyringPresence struct {
	Type    KeyringType `json:"type"    yaml:"type"`
	Present bool        `json:"present" yaml:"present"`
}
