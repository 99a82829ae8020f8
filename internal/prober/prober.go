// Package prober implements the Prober (C1): it multiplexes HTTP(S)
// requests for many Pages across a bounded pool of Check-draining workers.
package prober

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/expectation"
	"github.com/kreciklabs/krecik/internal/httputil"
	"github.com/kreciklabs/krecik/internal/story"
)

const maxBodyBytes = 4 << 20 // 4MiB, bounds memory for content/length expectations

// WorkItem pairs a Check with the notifier tag Stories produced from it
// should carry — this is what collapses the source's three near-duplicate
// checker actors into one Prober.
type WorkItem struct {
	Check    check.Check
	Notifier string
}

// Pool is a bounded pool of workers, each draining one Check at a time.
// Workers never share an HTTP client across Checks; within a Check, Pages
// are multiplexed concurrently bounded by a rate limiter standing in for
// curl's multi-handle.
type Pool struct {
	Size         int
	CheckTimeout time.Duration
}

// NewPool returns a Pool with the given worker count (clamped to [2,8] if
// outside that range, per the documented default) and per-Check timeout.
func NewPool(size int, checkTimeout time.Duration) *Pool {
	if size < 2 {
		size = 2
	}
	if size > 8 {
		size = 8
	}
	if checkTimeout <= 0 {
		checkTimeout = 30 * time.Second
	}
	return &Pool{Size: size, CheckTimeout: checkTimeout}
}

// Run drains items across the worker pool and returns every Story produced,
// preserving per-Check, per-Page, per-expectation ordering (spec'd ordering
// guarantees apply within a Check; across Checks interleaving is
// unspecified).
func (p *Pool) Run(ctx context.Context, items []WorkItem) story.Stories {
	workCh := make(chan WorkItem)
	resultsCh := make(chan story.Stories, len(items))

	var wg sync.WaitGroup
	for i := 0; i < p.Size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				resultsCh <- p.runCheck(ctx, item)
			}
		}()
	}

	go func() {
		for _, item := range items {
			workCh <- item
		}
		close(workCh)
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var out story.Stories
	for stories := range resultsCh {
		out = append(out, stories...)
	}
	return out
}

// runCheck drains one Check: every Page is fired concurrently, paced by a
// rate limiter sized to the larger of the default max-connections and the
// largest max_connections any of its Pages sets, and
// the whole batch is bounded by CheckTimeout so a stuck socket cannot wedge
// the pool beyond it.
func (p *Pool) runCheck(ctx context.Context, item WorkItem) story.Stories {
	checkCtx, cancel := context.WithTimeout(ctx, p.CheckTimeout)
	defer cancel()

	limit := check.DefaultMaxConnections
	for _, pg := range item.Check.Pages {
		if pg.Options != nil && pg.Options.MaxConnections > limit {
			limit = pg.Options.MaxConnections
		}
	}
	limiter := rate.NewLimiter(rate.Limit(limit*2), limit)

	type pageResult struct {
		index   int
		stories story.Stories
	}

	results := make([]story.Stories, len(item.Check.Pages))
	var wg sync.WaitGroup
	resCh := make(chan pageResult, len(item.Check.Pages))

	for idx, page := range item.Check.Pages {
		idx, page := idx, page
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(checkCtx); err != nil {
				resCh <- pageResult{idx, story.Stories{story.Error(story.HandlerFailed(page.URL + ": " + err.Error()))}}
				return
			}
			stories := fetchAndEvaluate(checkCtx, page, item.Notifier)
			resCh <- pageResult{idx, stories}
		}()
	}

	go func() {
		wg.Wait()
		close(resCh)
	}()

	for r := range resCh {
		results[r.index] = r.stories
	}

	var out story.Stories
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func fetchAndEvaluate(ctx context.Context, page check.Page, notifier string) story.Stories {
	opts, err := page.Options.Resolve()
	if err != nil {
		return story.Stories{story.Error(story.CheckParseProblem(err.Error())).WithNotifier(notifier)}
	}

	raw := fetch(ctx, page, opts)
	if raw.HandlerFailed() {
		return story.Stories{story.Error(story.HandlerFailed(page.URL)).WithNotifier(notifier)}
	}

	stories := expectation.EvaluatePage(page, raw)
	tagged := make(story.Stories, len(stories))
	for i, s := range stories {
		tagged[i] = s.WithNotifier(notifier)
	}
	return tagged
}

// fetch performs the actual HTTP round trip. It never returns an error:
// every failure mode is folded into a RawResult the Expectation Engine can
// reason about, per the "fully contained, never abort siblings" policy.
func fetch(ctx context.Context, page check.Page, opts check.ResolvedOptions) expectation.RawResult {
	client := buildClient(opts)

	var bodyReader io.Reader
	if opts.PostData != "" {
		bodyReader = strings.NewReader(opts.PostData)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, page.URL, bodyReader)
	if err != nil {
		return expectation.RawResult{ProtoError: ReasonFailedInit}
	}

	req.Header.Set("User-Agent", opts.Agent)
	for _, h := range opts.Headers {
		if k, v, ok := strings.Cut(h, ":"); ok {
			req.Header.Set(strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}
	for _, c := range opts.Cookies {
		if k, v, ok := strings.Cut(c, "="); ok {
			req.AddCookie(&http.Cookie{Name: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return expectation.RawResult{ProtoError: Classify(err)}
	}
	defer resp.Body.Close()

	body, _, _ := httputil.ReadAllWithLimit(resp.Body, maxBodyBytes)
	effective := page.URL
	if resp.Request != nil && resp.Request.URL != nil {
		effective = resp.Request.URL.String()
	}

	return expectation.RawResult{
		Body:         bytes.TrimRight(body, "\x00"),
		EffectiveURL: effective,
		Code:         resp.StatusCode,
	}
}
