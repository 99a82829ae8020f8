// Package remoteinventory adapts a remote JSON catalog into Pages and
// Domains: the shape is {client, active, data:{host:{vhosts[],
// showroom_urls[]}, ams}}. Wildcard (*.-prefixed) and inactive entries are
// filtered out; non-wildcard vhosts become both a Page
// (https://<vhost>/<ams>) and a Domain probe. showroom_urls entries are
// merged in verbatim as additional Pages (no vhost/ams templating, no
// Domain probe), matching the upstream catalog's two-list URL merge.
package remoteinventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/redaction"
)

// Entry is one decoded catalog record.
type Entry struct {
	Client       string
	Active       bool
	Vhosts       []string
	ShowroomURLs []string
	AMS          string
}

// Fetch retrieves and parses the catalog at sourceURL. The URL is masked
// before it appears in any returned error, since remote catalogs are
// typically authenticated with a ?token= query parameter.
func Fetch(ctx context.Context, client *http.Client, sourceURL string) ([]Entry, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redaction.RedactURL(urlErr.URL)
		}
		return nil, fmt.Errorf("build inventory request for %s: %w", redaction.RedactURL(sourceURL), err)
	}

	resp, err := client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redaction.RedactURL(urlErr.URL)
		}
		return nil, fmt.Errorf("fetch inventory from %s: %w", redaction.RedactURL(sourceURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inventory body from %s: %w", redaction.RedactURL(sourceURL), err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inventory source %s responded %d", redaction.RedactURL(sourceURL), resp.StatusCode)
	}

	return Parse(body)
}

// Parse decodes the catalog JSON into Entry records, tolerating a single
// object or a top-level array of objects.
func Parse(data []byte) ([]Entry, error) {
	root := gjson.ParseBytes(data)
	if !root.Exists() {
		return nil, fmt.Errorf("inventory body is not valid JSON")
	}

	var records []gjson.Result
	if root.IsArray() {
		records = root.Array()
	} else {
		records = []gjson.Result{root}
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		e := Entry{
			Client: rec.Get("client").String(),
			Active: rec.Get("active").Bool(),
			AMS:    rec.Get("data.ams").String(),
		}
		for _, v := range rec.Get("data.host.vhosts").Array() {
			if host := v.String(); host != "" {
				e.Vhosts = append(e.Vhosts, host)
			}
		}
		for _, v := range rec.Get("data.host.showroom_urls").Array() {
			if url := v.String(); url != "" {
				e.ShowroomURLs = append(e.ShowroomURLs, url)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// IsWildcard reports whether a vhost entry is a wildcard placeholder
// ("*.example.com") rather than a concrete probeable host.
func IsWildcard(vhost string) bool {
	return strings.HasPrefix(vhost, "*.")
}

// ToCheck synthesizes a Check from a set of inventory entries: a Page per
// non-wildcard vhost (https://<vhost>/<ams>) with a 200-code expectation and
// a matching Domain probe with a resolvability expectation, plus a Page per
// showroom URL (used verbatim, no Domain probe) — the two lists are merged
// the same way the upstream catalog source merges "vhosts" and "showrooms".
// Inactive entries and wildcard vhosts are skipped entirely.
func ToCheck(name, notifier string, entries []Entry) check.Check {
	c := check.Check{Name: name, Notifier: notifier}

	for _, e := range entries {
		if !e.Active {
			continue
		}
		for _, vhost := range e.Vhosts {
			if IsWildcard(vhost) {
				continue
			}

			url := fmt.Sprintf("https://%s/%s", vhost, strings.TrimPrefix(e.AMS, "/"))
			c.Pages = append(c.Pages, check.Page{
				URL:          url,
				Expectations: []check.PageExpectation{{Kind: check.ValidCode, Code: check.DefaultSuccessfulCode}},
			})
			c.Domains = append(c.Domains, check.Domain{
				Name:         vhost,
				Expectations: []check.DomainExpectation{{Kind: check.ValidResolvable}},
			})
		}
		for _, url := range e.ShowroomURLs {
			c.Pages = append(c.Pages, check.Page{
				URL:          url,
				Expectations: []check.PageExpectation{{Kind: check.ValidCode, Code: check.DefaultSuccessfulCode}},
			})
		}
	}
	return c
}
