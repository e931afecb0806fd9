package cert

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

// LoadCert builds a TLS config for mutual auth against a broker from a
// client key pair and a CA bundle.
func LoadCert(keyFile string, certFile string, bundleFile string) (*tls.Config, error) {
	if keyFile == "" || certFile == "" || bundleFile == "" {
		return nil, fmt.Errorf("missing key, cert or ca bundle")
	}

	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair: %v", err)
	}

	caCert, err := os.ReadFile(bundleFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle: %v", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA certificates")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		RootCAs:      caCertPool,
	}, nil
}

// ShowCertificate renders the subjects and validity windows of every PEM
// block in certFile, for debug logging around broker TLS setup.
func ShowCertificate(certFile string) (string, error) {
	raw, err := os.ReadFile(certFile)
	if err != nil {
		return "", fmt.Errorf("failed to read certificate: %v", err)
	}

	var res []string
	for {
		var block *pem.Block
		block, raw = pem.Decode(raw)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("failed to parse certificate: %v", err)
		}
		res = append(res, fmt.Sprintf("subject: %s, issuer: %s, not after: %s",
			c.Subject, c.Issuer, c.NotAfter.Format("2006-01-02")))
	}
	if len(res) == 0 {
		return "", fmt.Errorf("no certificate found in %s", certFile)
	}
	return strings.Join(res, "\n"), nil
}
