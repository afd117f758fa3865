// Package config holds the options of a crawl and loads them from the
// .commitmine YAML file, the environment and a .env file.
//
// Sources are applied in a fixed order, later ones winning:
//
//  1. NewConfig defaults
//  2. the configuration file (ApplyFile)
//  3. COMMITMINE_* environment variables (ApplyEnv)
//  4. CLI flags, set by the caller
//
// Validate is called once after all sources are applied.
package config
