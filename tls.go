package nmi_direct_post

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

var errNoGatewayCerts = errors.New("no PEM certificates found")

// gatewayTLSConfig builds the TLS settings for talking to the gateway, or
// returns nil when neither a client identity nor a gateway CA is configured.
//
// GatewayCAFile pins the gateway: only chains ending in one of its
// certificates are accepted, the system roots are not consulted.
// ClientP12Path adds a client certificate for gateways or egress proxies
// that require mutual TLS.
func gatewayTLSConfig(cfg Config) (*tls.Config, error) {
	if cfg.ClientP12Path == "" && cfg.GatewayCAFile == "" {
		return nil, nil
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.GatewayCAFile != "" {
		roots, err := loadGatewayRoots(cfg.GatewayCAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load gateway CA: %w", err)
		}
		tlsCfg.RootCAs = roots
	}

	if cfg.ClientP12Path != "" {
		identity, err := loadClientIdentity(cfg.ClientP12Path, cfg.ClientP12Password)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{identity}
	}
	return tlsCfg, nil
}

// loadGatewayRoots reads a PEM bundle of gateway CA certificates.
func loadGatewayRoots(path string) (*x509.CertPool, error) {
	pemData, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("%s: %w", path, errNoGatewayCerts)
	}
	return pool, nil
}

// loadClientIdentity decodes a P12/PFX bundle into the certificate presented
// during the handshake, followed by any intermediates packed with it.
func loadClientIdentity(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return tls.Certificate{}, err
	}

	key, leaf, intermediates, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode %s: %w", path, err)
	}

	identity := tls.Certificate{PrivateKey: key, Leaf: leaf}
	identity.Certificate = append(identity.Certificate, leaf.Raw)
	for _, cert := range intermediates {
		identity.Certificate = append(identity.Certificate, cert.Raw)
	}
	return identity, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
