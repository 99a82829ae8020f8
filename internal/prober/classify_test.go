package prober

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyNilIsEmpty(t *testing.T) {
	require.Equal(t, "", Classify(nil))
}

func TestClassifyTimeoutURLError(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "https://example.com", Err: context.DeadlineExceeded}
	require.Equal(t, ReasonOperationTimedOut, Classify(err))
}

func TestClassifyDNSError(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "example.invalid", IsNotFound: true}
	require.Equal(t, ReasonCouldntResolveHost, Classify(err))
}

func TestClassifyDialOpErrorIsCouldntConnect(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	require.Equal(t, ReasonCouldntConnect, Classify(err))
}

func TestClassifyUnsupportedProtocolScheme(t *testing.T) {
	err := errors.New(`unsupported protocol scheme "ftp"`)
	require.Equal(t, ReasonUnsupportedProtocol, Classify(err))
}

func TestClassifyTooManyRedirects(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "https://example.com", Err: errors.New("stopped after 10 redirects")}
	require.Equal(t, ReasonTooManyRedirects, Classify(err))
}

func TestClassifyFallsBackToCouldntConnect(t *testing.T) {
	require.Equal(t, ReasonCouldntConnect, Classify(errors.New("something unrecognizable happened")))
}
