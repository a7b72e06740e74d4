// Package security builds TLS client settings for transports that reach
// out-of-process providers.
//
//	transport, err := cfg.TLS.Transport()
//	client := &http.Client{Transport: transport, Timeout: cfg.Timeout}
package security
