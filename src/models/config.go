package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Countdown  MCountdownConfig  `yaml:"countdown"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Publisher  MPublisherConfig  `yaml:"publisher"`
	Server     MServerConfig     `yaml:"server"`
	Products   []MProduct        `yaml:"products"`
}

type MCountdownConfig struct {
	Mode   string          `yaml:"mode"`   // "deadline" or "cascade"
	Target string          `yaml:"target"` // RFC3339, deadline mode only
	Seed   *MCountdownState `yaml:"seed"` // nil when absent
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"` // seconds, 0 = transport default
	UserAgent      string   `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	Name                  string `yaml:"name"`
	URL                   string `yaml:"url"`
	Currency              string `yaml:"currency"`
	UpdateIntervalSeconds int    `yaml:"update_interval_seconds"`
	HistorySize           int    `yaml:"history_size"`
}

type MPublisherConfig struct {
	NatsURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type MServerConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	ClientBuffer   int      `yaml:"client_buffer"`
}
