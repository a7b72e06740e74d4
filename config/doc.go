// Package config loads the greenscreen service configuration.
//
// Values come from a config.yml file, an optional .env file and the process
// environment, in increasing order of precedence. Environment variables are
// scoped by the service name, so for the "greenscreen" service
// GREENSCREEN_REMOTE_ENDPOINT sets remote.endpoint.
//
//	var cfg config.Config
//	if err := config.Load("greenscreen", &cfg); err != nil {
//	    return err
//	}
package config
