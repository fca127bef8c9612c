package api

// MonStatus is the subset of a monitor's "mon_status" admin socket output that gets tracked.
type MonStatus struct {
	Name   string `json:"name"   yaml:"name"`
	Rank   int    `json:"rank"   yaml:"rank"`
	State  string `json:"state"  yaml:"state"`
	Quorum []int  `json:"quorum" yaml:"quorum"`

	MonMap struct {
		FSID  string `json:"fsid"  yaml:"fsid"`
		Epoch int    `json:"epoch" yaml:"epoch"`
		Mons  []struct {
			Rank int    `json:"rank" yaml:"rank"`
			Name string `json:"name" yaml:"name"`
			Addr string `json:"addr" yaml:"addr"`
		} `json:"mons" yaml:"mons"`
	} `json:"monmap" yaml:"monmap"`
}

// InQuorum returns true if the monitor reports itself as leader or peon.
func (s *MonStatus) InQuorum() bool {
	return s.State == "leader" || s.State == "peon"
}
