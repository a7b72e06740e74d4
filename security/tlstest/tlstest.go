// Package tlstest writes a throwaway CA and a localhost certificate for
// tests that need a TLS segmentation endpoint.
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Certs are the generated PEM files and the parsed server certificate.
type Certs struct {
	CAFile   string
	CertFile string
	KeyFile  string
	// Server is the leaf certificate, valid for localhost and loopback IPs.
	Server tls.Certificate
}

type issued struct {
	cert *x509.Certificate
	der  []byte
	key  *ecdsa.PrivateKey
}

// issue signs tmpl with parent, or self-signs when parent is nil.
func issue(t testing.TB, tmpl *x509.Certificate, parent *issued) issued {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: key for %s: %v", tmpl.Subject, err)
	}
	tmpl.NotBefore = time.Now().Add(-time.Hour)
	tmpl.NotAfter = tmpl.NotBefore.Add(25 * time.Hour)
	signer, signerCert := key, tmpl
	if parent != nil {
		signer, signerCert = parent.key, parent.cert
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signerCert, &key.PublicKey, signer)
	if err != nil {
		t.Fatalf("tlstest: sign %s: %v", tmpl.Subject, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("tlstest: parse %s: %v", tmpl.Subject, err)
	}
	return issued{cert: cert, der: der, key: key}
}

// Generate creates a CA and a leaf certificate signed by it in t.TempDir().
func Generate(t testing.TB) *Certs {
	t.Helper()
	ca := issue(t, &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"greenscreen test CA"}},
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}, nil)
	leaf := issue(t, &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}, &ca)

	keyDER, err := x509.MarshalECPrivateKey(leaf.key)
	if err != nil {
		t.Fatalf("tlstest: marshal key: %v", err)
	}
	encode := func(kind string, der []byte) string {
		return string(pem.EncodeToMemory(&pem.Block{Type: kind, Bytes: der}))
	}
	dir := t.TempDir()
	c := &Certs{
		CAFile:   writeIn(t, dir, "ca.pem", encode("CERTIFICATE", ca.der)),
		CertFile: writeIn(t, dir, "cert.pem", encode("CERTIFICATE", leaf.der)),
		KeyFile:  writeIn(t, dir, "key.pem", encode("EC PRIVATE KEY", keyDER)),
	}
	c.Server = tls.Certificate{Certificate: [][]byte{leaf.der}, PrivateKey: leaf.key, Leaf: leaf.cert}
	return c
}

// WriteFile writes content to name in a fresh temp dir.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	return writeIn(t, t.TempDir(), name, content)
}

func writeIn(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("tlstest: write %s: %v", name, err)
	}
	return path
}
