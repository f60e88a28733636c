// Package config loads the application configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file
//  3. Default values (lowest priority)
//
// A .env file in the working directory is loaded into the environment before
// anything else is read.
//
// # Environment Variables
//
// All environment variables follow the pattern BHAV_<SECTION>_<FIELD>:
//
//	BHAV_SERVER_PORT=8080
//	BHAV_LOGGING_LEVEL=debug
//	BHAV_DIRECTORY_BACKEND=redis
//	BHAV_DIRECTORY_REDIS_ADDR=localhost:6379
//	BHAV_DIRECTORY_NSE_STALENESS=daily
//	BHAV_STORE_ENABLED=true
//	BHAV_STORE_DB_FILE=data/reports.db
//
// The configuration file is taken from BHAV_CONFIG_FILE, or the first of
// bhav.yaml, config.yaml and configs/config.yaml that exists.
package config
