// Package certcheck implements the Certificate Inspector (C2): for each
// Domain x DomainExpectation it performs a TLS handshake and converts the
// observed certificate expiry into a Story.
package certcheck

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/story"
)

const defaultTimeout = 15 * time.Second

// Dialer abstracts the TLS handshake so tests can substitute a fake without
// opening real sockets. The default uses crypto/tls.DialWithDialer — there
// is no idiomatic third-party replacement for raw TLS dialing in the
// examples or the wider ecosystem, so this is the one place the inspector
// knowingly stays on the standard library.
type Dialer func(ctx context.Context, domain string, timeout time.Duration) (notAfter time.Time, err error)

// Inspector runs TLS certificate checks across a set of domains.
type Inspector struct {
	Timeout time.Duration
	Dial    Dialer
}

// New returns an Inspector using the real crypto/tls dialer.
func New(timeout time.Duration) *Inspector {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Inspector{Timeout: timeout, Dial: defaultDial}
}

func defaultDial(ctx context.Context, domain string, timeout time.Duration) (time.Time, error) {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(domain, "443"), &tls.Config{
		ServerName: domain,
	})
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Close()

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return time.Time{}, fmt.Errorf("no peer certificates presented")
	}
	return state.PeerCertificates[0].NotAfter, nil
}

// InspectDomain performs one handshake for domain and maps the outcome onto
// a Story per expectation, per the ordered rule set in the data model.
func (i *Inspector) InspectDomain(ctx context.Context, d check.Domain) story.Stories {
	notAfter, err := i.Dial(ctx, d.Name, i.Timeout)
	if err != nil {
		out := make(story.Stories, 0, len(d.Expectations))
		for range d.Expectations {
			out = append(out, story.Minor(story.InternalProtocolProblem(d.Name, err.Error())))
		}
		return out
	}

	// floor, not truncate toward zero: a cert expired by 12 hours must
	// report -1 days remaining, not 0.
	daysRemaining := int(math.Floor(time.Until(notAfter).Hours() / 24))

	out := make(story.Stories, 0, len(d.Expectations))
	for _, exp := range d.Expectations {
		switch exp.Kind {
		case check.ValidExpiryPeriod:
			minDays := int(exp.Days)
			if daysRemaining < minDays || !notAfter.After(time.Now()) {
				out = append(out, story.Error(story.TLSDomainExpired(d.Name, daysRemaining)))
			} else {
				out = append(out, story.Success(story.TLSCertificateFresh(d.Name, daysRemaining, minDays)))
			}
		case check.ValidResolvable:
			out = append(out, story.Success(story.Address(d.Name, d.Name)))
		default:
			out = append(out, story.Minor(story.InternalProtocolProblem(d.Name, "unhandled domain expectation: "+exp.String())))
		}
	}
	return out
}

// InspectAll fans out across domains with no ordering contract, bounded
// only by OS socket limits, per the concurrency model.
func (i *Inspector) InspectAll(ctx context.Context, domains []check.Domain) story.Stories {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out story.Stories
	)

	for _, d := range domains {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			stories := i.InspectDomain(ctx, d)
			mu.Lock()
			out = append(out, stories...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}
