package config

// Default values applied to fields left unset in the configuration file.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "gateway"

	DefaultAuditBufferSize    = 1024
	DefaultAuditRetentionDays = 30
	DefaultAuditPurgeSchedule = "0 3 * * *"
)

// ApplyDefaults fills in default values for optional fields that were not
// set in the configuration file. It never overwrites explicit values.
func ApplyDefaults(cfg *Config) {
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Audit.BufferSize <= 0 {
		cfg.Audit.BufferSize = DefaultAuditBufferSize
	}
	if cfg.Audit.RetentionDays <= 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if cfg.Audit.PurgeSchedule == "" {
		cfg.Audit.PurgeSchedule = DefaultAuditPurgeSchedule
	}
}
