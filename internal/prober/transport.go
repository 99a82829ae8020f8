package prober

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/kreciklabs/krecik/internal/check"
)

// buildClient constructs an *http.Client honoring one Page's resolved
// options: the method is handled by the caller, this builds the transport
// (TLS verify flags, connect timeout, keep-alive/HTTP2), the client's total
// timeout, and the redirect policy (follow/max-redirects).
func buildClient(opts check.ResolvedOptions) *http.Client {
	dialer := &net.Dialer{Timeout: opts.ConnectionTimeout}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	switch {
	case !opts.SSLVerifyPeer:
		tlsConfig.InsecureSkipVerify = true
	case !opts.SSLVerifyHost:
		// Verify the certificate chain but skip hostname matching: this is
		// the Go equivalent of curl's verify-peer=true, verify-host=false.
		tlsConfig.InsecureSkipVerify = true
		tlsConfig.VerifyPeerCertificate = verifyChainWithoutHostname
	}

	transport := &http.Transport{
		TLSClientConfig:       tlsConfig,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxConnsPerHost:       opts.MaxConnections,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.ConnectionTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}

	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		maxRedirects := opts.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("stopped after too many redirects")
			}
			return nil
		}
	}

	return client
}

func verifyChainWithoutHostname(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.New("no certificates presented")
	}
	certs := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return err
		}
		certs = append(certs, cert)
	}

	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}

	_, err := certs[0].Verify(x509.VerifyOptions{
		Intermediates: intermediates,
	})
	return err
}
