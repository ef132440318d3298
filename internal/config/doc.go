// Package config manages user-level settings stored at ~/.bundlekeep/config.yaml.
// Values may be overridden through BUNDLEKEEP_* environment variables; Current
// decodes them into the typed Settings consumed by the package manager.
package config
