package prober

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
)

// Classify maps a transport-level error onto one of the fixed symbolic
// reasons from the data model. The classification is embedded verbatim in
// the resulting Story's detail string — the Warden relies on string
// stability to dedupe, so these constants must never be reworded.
const (
	ReasonFailedInit              = "FAILED_INIT"
	ReasonUnsupportedProtocol     = "UNSUPPORTED_PROTOCOL"
	ReasonCouldntResolveProxy     = "COULDNT_RESOLVE_PROXY"
	ReasonCouldntResolveHost      = "COULDNT_RESOLVE_HOST"
	ReasonCouldntConnect          = "COULDNT_CONNECT"
	ReasonRemoteAccessDenied      = "REMOTE_ACCESS_DENIED"
	ReasonPartialFile             = "PARTIAL_FILE"
	ReasonQuoteError              = "QUOTE_ERROR"
	ReasonHTTPReturnedError       = "HTTP_RETURNED_ERROR"
	ReasonReadError               = "READ_ERROR"
	ReasonWriteError              = "WRITE_ERROR"
	ReasonOutOfMemory             = "OUT_OF_MEMORY"
	ReasonOperationTimedOut       = "OPERATION_TIMEDOUT"
	ReasonSSLConnectError         = "SSL_CONNECT_ERROR"
	ReasonSSLCertProblem          = "SSL_CERTPROBLEM"
	ReasonSSLCipher               = "SSL_CIPHER"
	ReasonSSLCACert               = "SSL_CACERT"
	ReasonSSLEngineInitFailed     = "SSL_ENGINE_INITFAILED"
	ReasonSSLIssuerError          = "SSL_ISSUER_ERROR"
	ReasonTooManyRedirects        = "TOO_MANY_REDIRECTS"
	ReasonPeerFailedVerification  = "PEER_FAILED_VERIFICATION"
	ReasonGotNothing              = "GOT_NOTHING"
	ReasonSSLEngineNotFound       = "SSL_ENGINE_NOTFOUND"
	ReasonSSLEngineSetFailed      = "SSL_ENGINE_SETFAILED"
	ReasonSendError               = "SEND_ERROR"
	ReasonRecvError               = "RECV_ERROR"
	ReasonHTTP2Stream             = "HTTP2_STREAM"
	ReasonHTTP2                   = "HTTP2"
)

// Classify turns a Go net/http transport error into one of the fixed
// symbolic reasons above.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ReasonOperationTimedOut
		}
		if strings.Contains(urlErr.Err.Error(), "stopped after") || strings.Contains(urlErr.Err.Error(), "redirect") {
			return ReasonTooManyRedirects
		}
		err = urlErr.Err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonOperationTimedOut
	}
	if errors.Is(err, context.Canceled) {
		return ReasonOperationTimedOut
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return ReasonCouldntResolveHost
		}
		return ReasonCouldntResolveHost
	}

	var certErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) {
		return ReasonSSLCACert
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return ReasonPeerFailedVerification
	}
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		return ReasonSSLCertProblem
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return ReasonSSLConnectError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case opErr.Op == "dial":
			return ReasonCouldntConnect
		case opErr.Op == "read":
			return ReasonReadError
		case opErr.Op == "write":
			return ReasonWriteError
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "tls:"):
		return ReasonSSLConnectError
	case strings.Contains(msg, "proxyconnect"):
		return ReasonCouldntResolveProxy
	case strings.Contains(msg, "unsupported protocol scheme"):
		return ReasonUnsupportedProtocol
	case strings.Contains(msg, "EOF"):
		return ReasonGotNothing
	case strings.Contains(msg, "http2"):
		return ReasonHTTP2
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no route to host"):
		return ReasonCouldntConnect
	case strings.Contains(msg, "403"):
		return ReasonRemoteAccessDenied
	default:
		return ReasonCouldntConnect
	}
}
