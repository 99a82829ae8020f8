// Package orchestrator wires the Certificate Inspector and Prober into a
// single run, persists the result to the History Store, and exposes the
// one entry point the HTTP front end calls.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/kreciklabs/krecik/internal/certcheck"
	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/history"
	"github.com/kreciklabs/krecik/internal/prober"
	"github.com/kreciklabs/krecik/internal/story"
)

// Orchestrator runs a batch of Checks end to end: domain inspection, page
// probing, then a single history write.
type Orchestrator struct {
	Certs  *certcheck.Inspector
	Prober *prober.Pool
	Store  *history.Store
}

// New wires an Orchestrator from its three collaborators.
func New(certs *certcheck.Inspector, p *prober.Pool, store *history.Store) *Orchestrator {
	return &Orchestrator{Certs: certs, Prober: p, Store: store}
}

// Run submits every Check's Domains to the Certificate Inspector and every
// Check's Pages to the Prober in parallel (C1 and C2 have no dependency on
// each other), awaits both, then concatenates the two result sets (domains
// first, per the data model's Check.Domains-before-Check.Pages ordering),
// persists the combined run to history, and returns it.
func (o *Orchestrator) Run(ctx context.Context, checks []check.Check) (story.Stories, error) {
	var (
		wg            sync.WaitGroup
		domainResults story.Stories
		pageResults   story.Stories
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, c := range checks {
			for _, s := range o.Certs.InspectAll(ctx, c.Domains) {
				domainResults = append(domainResults, s.WithNotifier(c.Notifier))
			}
		}
	}()
	go func() {
		defer wg.Done()
		items := make([]prober.WorkItem, len(checks))
		for i, c := range checks {
			items[i] = prober.WorkItem{Check: c, Notifier: c.Notifier}
		}
		pageResults = o.Prober.Run(ctx, items)
	}()
	wg.Wait()

	all := append(domainResults, pageResults...)

	if _, err := o.Store.Write(all); err != nil {
		return all, fmt.Errorf("persist run: %w", err)
	}
	return all, nil
}
