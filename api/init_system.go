package api

// InitSystem identifies the init system running on the host.
type InitSystem string

// Known init systems.
const (
	InitSystemd InitSystem = "systemd"
	InitUpstart InitSystem = "upstart"
	InitSysV    InitSystem = "sysV"
)
