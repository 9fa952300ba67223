package security

import "time"

// Limits bounds the work one protection request may cause.
type Limits struct {
	// Maximum upload size accepted by ProtectHandler. Default: 100 MB.
	MaxUploadSize int64

	// Maximum run time of the encryption tool. Default: 60s.
	ToolTimeout time.Duration
}

// DefaultLimits returns a Limits struct with safe default values.
func DefaultLimits() Limits {
	return Limits{
		MaxUploadSize: 100 * 1024 * 1024, // 100 MB
		ToolTimeout:   60 * time.Second,
	}
}
