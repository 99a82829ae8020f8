// Package notifier implements the Notifier Gateway (C6): it formats a
// canonical message from an error-Story set, suppresses repeats against a
// state file, and forwards genuinely new messages to a pluggable Sink.
package notifier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kreciklabs/krecik/internal/story"
)

// AllClearMessage is sent when the candidate error set is empty.
const AllClearMessage = "All services are UP again!"

// Sink forwards a formatted message to an external destination (webhook,
// stdout, ...).
type Sink interface {
	Send(ctx context.Context, message string) error
}

// Gateway owns the single shared state file recording the last message sent.
type Gateway struct {
	StatePath string
	Sink      Sink
}

// New returns a Gateway writing its dedup state to statePath.
func New(statePath string, sink Sink) *Gateway {
	return &Gateway{StatePath: statePath, Sink: sink}
}

// FormatMessage renders the canonical message for a set of error Stories:
// each formatted as its human-readable string, sorted ascending
// lexicographically, adjacent duplicates removed, joined with newlines. An
// empty set renders AllClearMessage.
func FormatMessage(errs []story.Unexpected) string {
	if len(errs) == 0 {
		return AllClearMessage
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, e.String())
	}
	sort.Strings(lines)

	deduped := lines[:0:0]
	for i, l := range lines {
		if i == 0 || l != lines[i-1] {
			deduped = append(deduped, l)
		}
	}
	return strings.Join(deduped, "\n")
}

// Notify renders the canonical message and sends it only if it differs from
// the last message recorded in the state file. Two consecutive invocations
// with byte-identical canonical messages cause exactly one outbound send:
// the state file is updated only after a successful Send, so a delivery
// failure leaves the next run free to retry with the same message.
func (g *Gateway) Notify(ctx context.Context, errs []story.Unexpected) error {
	message := FormatMessage(errs)

	prev, err := g.readState()
	if err != nil {
		return fmt.Errorf("read notifier state: %w", err)
	}
	if prev == message {
		return nil
	}

	if err := g.Sink.Send(ctx, message); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return g.writeState(message)
}

func (g *Gateway) readState() (string, error) {
	data, err := os.ReadFile(g.StatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (g *Gateway) writeState(message string) error {
	if dir := filepath.Dir(g.StatePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	return os.WriteFile(g.StatePath, []byte(message), 0o644)
}
