package config

// MetricsConfig defines the optional Prometheus listener
type MetricsConfig struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" validate:"omitempty,listenaddr"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty" validate:"omitempty,startswith=/"`
}

// NewDefaultMetricsConfig creates default metrics configuration (listener disabled)
func NewDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Path: DefaultMetricsPath,
	}
}

// Enabled reports whether a listen address was configured.
func (c MetricsConfig) Enabled() bool {
	return c.ListenAddr != ""
}
