package config

// RemoteSource names one entry in the remote-inventory catalog map, keyed
// by the {path} segment of GET /check/remote/{path}.
type RemoteSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Notifier string `yaml:"notifier"`
}
