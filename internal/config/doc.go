// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Credentials not set in the file fall back to POLY_API_KEY, POLY_SECRET and
// POLY_PASSPHRASE.
package config
