package api

// ServiceCephCluster represents the configuration written out for a single Ceph cluster.
type ServiceCephCluster struct {
	FSID           string            `json:"fsid"             yaml:"fsid"`
	MonInitMembers []string          `json:"mon_init_members" yaml:"mon_init_members"`
	Monitors       []string          `json:"monitors"         yaml:"monitors"`
	ClientConfig   map[string]string `json:"client_config"    yaml:"client_config"`
}
