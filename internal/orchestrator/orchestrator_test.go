package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kreciklabs/krecik/internal/certcheck"
	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/history"
	"github.com/kreciklabs/krecik/internal/prober"
)

func TestOrchestratorRunPersistsCombinedHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	inspector := &certcheck.Inspector{
		Timeout: time.Second,
		Dial: func(_ context.Context, domain string, _ time.Duration) (time.Time, error) {
			return time.Now().Add(60 * 24 * time.Hour), nil
		},
	}

	pool := prober.NewPool(2, 5*time.Second)
	store, err := history.New(t.TempDir())
	require.NoError(t, err)

	orch := New(inspector, pool, store)

	checks := []check.Check{
		{
			Name:     "site",
			Notifier: "ops",
			Domains: []check.Domain{
				{Name: "example.com", Expectations: []check.DomainExpectation{{Kind: check.ValidExpiryPeriod, Days: 10}}},
			},
			Pages: []check.Page{
				{URL: srv.URL, Expectations: []check.PageExpectation{{Kind: check.ValidCode, Code: 200}}},
			},
		},
	}

	stories, err := orch.Run(context.Background(), checks)
	require.NoError(t, err)
	require.NotEmpty(t, stories)

	for _, s := range stories {
		require.Equal(t, "ops", s.Notifier)
	}

	paths, err := store.List()
	require.NoError(t, err)
	require.Len(t, paths, 1)

	persisted := store.Read(paths[0])
	require.Equal(t, len(stories), len(persisted))
}
