// Package check defines the declarative check data model: Check, Page,
// PageOptions, PageExpectation, Domain, and DomainExpectation, plus JSON
// decoding for the on-disk check-file format.
package check

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultTotalTimeout   = 15 * time.Second
	DefaultMaxRedirects   = 10
	DefaultMaxConnections = 10
	DefaultSuccessfulCode = 200

	// ProductName/Version/Homepage compose the default User-Agent string,
	// "<product>/<version> (+<homepage>)".
	ProductName    = "krecik"
	ProductVersion = "2.0"
	Homepage       = "https://github.com/kreciklabs/krecik"
)

// DefaultAgent returns the default User-Agent string used when a Page does
// not set one explicitly.
func DefaultAgent() string {
	return fmt.Sprintf("%s/%s (+%s)", ProductName, ProductVersion, Homepage)
}

// PageOptions configures a single Page's HTTP request. Zero values mean
// "unset"; Resolve fills them in per the documented defaults.
type PageOptions struct {
	Method            string   `json:"method,omitempty"`
	FollowRedirects   *bool    `json:"follow_redirects,omitempty"`
	SSLVerifyPeer     *bool    `json:"ssl_verify_peer,omitempty"`
	SSLVerifyHost     *bool    `json:"ssl_verify_host,omitempty"`
	ConnectionTimeout int      `json:"connection_timeout,omitempty"` // seconds
	Timeout           int      `json:"timeout,omitempty"`            // seconds
	MaxRedirects      int      `json:"max_redirects,omitempty"`
	MaxConnections    int      `json:"max_connections,omitempty"`
	Cookies           []string `json:"cookies,omitempty"`
	Headers           []string `json:"headers,omitempty"`
	Agent             string   `json:"agent,omitempty"`
	PostData          string   `json:"post_data,omitempty"`
}

// ResolvedOptions is PageOptions with every field defaulted, used by the
// Prober so it never has to re-derive a default mid-request.
type ResolvedOptions struct {
	Method            string
	FollowRedirects   bool
	SSLVerifyPeer     bool
	SSLVerifyHost     bool
	ConnectionTimeout time.Duration
	Timeout           time.Duration
	MaxRedirects      int
	MaxConnections    int
	Cookies           []string
	Headers           []string
	Agent             string
	PostData          string
}

// Resolve applies the documented defaults: follow-redirects=true,
// verify-peer=true, verify-host=true, GET, connect-timeout=30s,
// total-timeout=15s, max-redirects=10, max-connections=10, agent defaults
// to "<product>/<version> (+<homepage>)".
func (o *PageOptions) Resolve() (ResolvedOptions, error) {
	r := ResolvedOptions{
		FollowRedirects:   true,
		SSLVerifyPeer:     true,
		SSLVerifyHost:     true,
		ConnectionTimeout: DefaultConnectTimeout,
		Timeout:           DefaultTotalTimeout,
		MaxRedirects:      DefaultMaxRedirects,
		MaxConnections:    DefaultMaxConnections,
		Agent:             DefaultAgent(),
		Method:            "GET",
	}
	if o == nil {
		return r, nil
	}

	method, err := normalizeMethod(o.Method)
	if err != nil {
		return r, err
	}
	r.Method = method

	if o.FollowRedirects != nil {
		r.FollowRedirects = *o.FollowRedirects
	}
	if o.SSLVerifyPeer != nil {
		r.SSLVerifyPeer = *o.SSLVerifyPeer
	}
	if o.SSLVerifyHost != nil {
		r.SSLVerifyHost = *o.SSLVerifyHost
	}
	if o.ConnectionTimeout > 0 {
		r.ConnectionTimeout = time.Duration(o.ConnectionTimeout) * time.Second
	}
	if o.Timeout > 0 {
		r.Timeout = time.Duration(o.Timeout) * time.Second
	}
	if o.MaxRedirects > 0 {
		r.MaxRedirects = o.MaxRedirects
	}
	if o.MaxConnections > 0 {
		r.MaxConnections = o.MaxConnections
	}
	if o.Agent != "" {
		r.Agent = o.Agent
	}
	r.Cookies = o.Cookies
	r.Headers = o.Headers
	r.PostData = o.PostData
	return r, nil
}

// Page is a single URL probe with its expectations.
type Page struct {
	URL         string            `json:"url"`
	Expectations []PageExpectation `json:"expects,omitempty"`
	Options     *PageOptions      `json:"options,omitempty"`
}

// Domain is a hostname probe with its expectations.
type Domain struct {
	Name         string              `json:"name"`
	Expectations []DomainExpectation `json:"expects,omitempty"`
}

// Check is a declarative bundle of page/domain probes sharing a notifier tag.
type Check struct {
	Name     string   `json:"-"`
	Notifier string   `json:"notifier,omitempty"`
	Domains  []Domain `json:"domains,omitempty"`
	Pages    []Page   `json:"pages,omitempty"`
}

// Checks is an ordered collection of Check, preserving declaration order.
type Checks []Check

// ParseCheck decodes a single check-file document. Unknown expectation
// variants fail with a message containing "unknown variant" (no silent
// defaulting), per the external interface contract.
func ParseCheck(data []byte) (Check, error) {
	var c Check
	if err := json.Unmarshal(data, &c); err != nil {
		return Check{}, fmt.Errorf("parse check: %w", err)
	}
	return c, nil
}

// FirstCodeExpectation returns the first ValidCode expectation, or a
// synthesized ValidCode(200) if none is present — first-wins semantics
// preserved for code/length/address selection helpers.
func FirstCodeExpectation(exps []PageExpectation) PageExpectation {
	for _, e := range exps {
		if e.Kind == ValidCode {
			return e
		}
	}
	return PageExpectation{Kind: ValidCode, Code: DefaultSuccessfulCode}
}

// ContentExpectations returns all ValidContent expectations, preserving
// declaration order. Multiple are meaningful; duplicates are tolerated.
func ContentExpectations(exps []PageExpectation) []PageExpectation {
	var out []PageExpectation
	for _, e := range exps {
		if e.Kind == ValidContent {
			out = append(out, e)
		}
	}
	return out
}

// FirstLengthExpectation returns the first ValidLength expectation, or a
// synthesized ValidNoLength if none is present.
func FirstLengthExpectation(exps []PageExpectation) PageExpectation {
	for _, e := range exps {
		if e.Kind == ValidLength {
			return e
		}
	}
	return PageExpectation{Kind: ValidNoLength}
}

// FirstAddressExpectation returns the first ValidAddress expectation, or a
// synthesized ValidNoAddress if none is present.
func FirstAddressExpectation(exps []PageExpectation) PageExpectation {
	for _, e := range exps {
		if e.Kind == ValidAddress {
			return e
		}
	}
	return PageExpectation{Kind: ValidNoAddress}
}
