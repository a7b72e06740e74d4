package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/validation"
)

// TLSConfig holds client TLS settings. The zero value means plain system
// defaults.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`
	// CAFile is a PEM bundle that replaces the system roots.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile enable mutual TLS and must be set together.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file" validate:"required_with=KeyFile"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file" validate:"required_with=CertFile"`
	// ServerName overrides the name checked against the server certificate.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// MinVersion is "1.2" (default) or "1.3".
	MinVersion string `yaml:"min_version" mapstructure:"min_version" validate:"omitempty,oneof=1.2 1.3"`
}

// Enabled reports whether any TLS setting is configured.
func (c *TLSConfig) Enabled() bool {
	if c == nil {
		return false
	}
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != "" || c.MinVersion != ""
}

// Validate checks the field combinations.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	return validation.Validate(c)
}

var tlsVersions = map[string]uint16{"": tls.VersionTLS12, "1.2": tls.VersionTLS12, "1.3": tls.VersionTLS13}

// Build returns the client tls.Config, or nil when nothing is configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	roots, err := c.roots()
	if err != nil {
		return nil, err
	}
	certs, err := c.clientCerts()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for self-signed segmenters
		ServerName:         c.ServerName,
		MinVersion:         tlsVersions[c.MinVersion],
		RootCAs:            roots,
		Certificates:       certs,
	}, nil
}

// roots is nil, meaning the system pool, when no CA file is set.
func (c *TLSConfig) roots() (*x509.CertPool, error) {
	if c.CAFile == "" {
		return nil, nil
	}
	bundle, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, errors.ResourceMissing(c.CAFile, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(bundle) {
		return nil, errors.InvalidConfig("tls.ca_file", fmt.Sprintf("%s holds no PEM certificate", c.CAFile))
	}
	return pool, nil
}

func (c *TLSConfig) clientCerts() ([]tls.Certificate, error) {
	if c.CertFile == "" {
		return nil, nil
	}
	pair, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, errors.InvalidConfig("tls.cert_file", err.Error()).WithCause(err)
	}
	return []tls.Certificate{pair}, nil
}

// Transport returns a clone of http.DefaultTransport using the configured
// TLS settings.
func (c *TLSConfig) Transport() (*http.Transport, error) {
	tlsCfg, err := c.Build()
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	return transport, nil
}
