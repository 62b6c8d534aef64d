package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

	// ErrKeyPairRequired is returned when only one of cert and key is set.
	ErrKeyPairRequired = errors.New("tlsroots: certificate and key must be set together")

	// ErrNoRoots is returned when system roots are off and no CA is given.
	ErrNoRoots = errors.New("tlsroots: no trusted roots configured")
)

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a pool seeded with the system roots, or an empty pool
// where the platform has none.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds every certificate of a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	return p.AddCertPEM(data)
}

// AddCertPEM adds certificates from PEM-encoded data. Non-certificate
// blocks are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var added int
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// AddCertDir adds every .pem, .crt and .cer file of dir. Unreadable files
// are skipped.
func (p *Pool) AddCertDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("tlsroots: read dir %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".crt", ".cer":
			if err := p.AddCertFile(filepath.Join(dir, entry.Name())); err == nil {
				loaded++
			}
		}
	}
	return loaded, nil
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// ClientOptions selects how the client verifies the server.
type ClientOptions struct {
	// CAFile is an extra PEM bundle trusted next to the system roots.
	CAFile string
	// CADir is a directory of PEM certificates trusted like CAFile.
	CADir string
	// NoSystemRoots trusts only CAFile and CADir.
	NoSystemRoots bool
	// ServerName overrides the name checked against the certificate.
	ServerName string
	// InsecureSkipVerify disables verification (local testing only).
	InsecureSkipVerify bool
	// CertFile and KeyFile present a client certificate when both are set.
	CertFile string
	KeyFile  string
}

// ClientConfig builds the TLS configuration for Connection.
func ClientConfig(opts ClientOptions) (*tls.Config, error) {
	pool := NewPool()
	if opts.NoSystemRoots {
		if opts.CAFile == "" && opts.CADir == "" {
			return nil, ErrNoRoots
		}
		pool = NewEmptyPool()
	}
	if opts.CAFile != "" {
		if err := pool.AddCertFile(opts.CAFile); err != nil {
			return nil, err
		}
	}
	if opts.CADir != "" {
		n, err := pool.AddCertDir(opts.CADir)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("tlsroots: %s: %w", opts.CADir, ErrNoCertsFound)
		}
	}

	cfg := &tls.Config{
		RootCAs:            pool.Pool(),
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}

	if opts.CertFile != "" || opts.KeyFile != "" {
		if opts.CertFile == "" || opts.KeyFile == "" {
			return nil, ErrKeyPairRequired
		}
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: load key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// ServerConfig builds the TLS configuration for the stub server.
func ServerConfig(certFile, keyFile string) (*tls.Config, error) {
	if certFile == "" || keyFile == "" {
		return nil, ErrKeyPairRequired
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
