package config

const (
	DefaultTimeZone   = "UTC"
	DefaultPolicyFile = "policy.yaml"

	// Upload admission limits
	MaxUploadBytes = 16 << 20
	MaxDetailRows  = 50000

	// Run history retention
	DefaultRetentionDays     = 180
	DefaultRetentionSchedule = "30 2 * * *"
)
