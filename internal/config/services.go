package config

import "time"

// GeoConfig points the building-name geocoder at its endpoint.
// Repeated upstream failures open a circuit for BreakerCooldown.
type GeoConfig struct {
	URL             string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func LoadGeoConfig() GeoConfig {
	failures := envInt("GEO_BREAKER_FAILURES", 5)
	if failures < 1 {
		failures = 1
	}
	return GeoConfig{
		URL:             envStr("GEO_LOOKUP_URL", "https://www.als.ogcio.gov.hk/lookup"),
		Timeout:         envDur("GEO_LOOKUP_TIMEOUT", 10*time.Second),
		BreakerFailures: uint32(failures),
		BreakerCooldown: envDur("GEO_BREAKER_COOLDOWN", 30*time.Second),
	}
}

// Photo store backends.
const (
	StoreS3    = "s3"
	StoreLocal = "local"
)

// StorageConfig selects where accommodation photos are kept.
type StorageConfig struct {
	Backend string // PHOTO_STORE: s3 or local
	Bucket  string // S3_PHOTOS_BUCKET
	Region  string // AWS_REGION
	Dir     string // PHOTO_DIR, local backend only
	BaseURL string // PHOTO_BASE_URL, public prefix of stored objects
}

func LoadStorageConfig() StorageConfig {
	c := StorageConfig{
		Backend: envStr("PHOTO_STORE", StoreLocal),
		Bucket:  envStr("S3_PHOTOS_BUCKET", ""),
		Region:  envStr("AWS_REGION", ""),
		Dir:     envStr("PHOTO_DIR", "uploads"),
		BaseURL: envStr("PHOTO_BASE_URL", ""),
	}
	if c.Backend == StoreLocal && c.BaseURL == "" {
		c.BaseURL = "/media"
	}
	return c
}
