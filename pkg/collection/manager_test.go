package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/REPPL/itemdeck.app-sub011/pkg/fetch"
)

// baseFetchers routes each base to its own fetcher, standing in for the
// per-directory open function the daemon uses.
func baseFetchers(bases map[string]fetch.Fetcher) func(base string) fetch.Fetcher {
	return func(base string) fetch.Fetcher {
		if f, ok := bases[base]; ok {
			return f
		}
		return mapFetcher(nil)
	}
}

func namedDocs(title string) map[string]string {
	return map[string]string{
		"collection.json": `{"entityTypes": {"game": {}}, "primaryType": "game"}`,
		"game.json":       `[{"id": "g", "title": "` + title + `"}]`,
	}
}

func TestManagerSwitchWait(t *testing.T) {
	m := NewManager(baseFetchers(map[string]fetch.Fetcher{
		"a": mapFetcher(namedDocs("Alpha")),
	}))

	if _, ok := m.Current(); ok {
		t.Fatal("fresh manager should hold no collection")
	}

	col, err := m.SwitchWait(context.Background(), "a")
	if err != nil {
		t.Fatalf("SwitchWait failed: %v", err)
	}
	cur, ok := m.Current()
	if !ok || cur.ID != col.ID {
		t.Errorf("Current: got %v ok=%v", cur, ok)
	}
	if m.Base() != "a" {
		t.Errorf("Base: got %q", m.Base())
	}
	if m.LastError() != nil {
		t.Errorf("LastError: got %v", m.LastError())
	}
}

func TestManagerFailedLoadKeepsPreviousCollection(t *testing.T) {
	m := NewManager(baseFetchers(map[string]fetch.Fetcher{
		"good": mapFetcher(namedDocs("Good")),
		"bad": mapFetcher(map[string]string{
			"collection.json": `{"entityTypes": {"game": {}}, "primaryType": "game"}`,
			"game.json":       `{broken`,
		}),
	}))

	first, err := m.SwitchWait(context.Background(), "good")
	if err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	if _, err := m.SwitchWait(context.Background(), "bad"); err == nil {
		t.Fatal("expected the bad load to fail")
	}

	cur, ok := m.Current()
	if !ok || cur.ID != first.ID {
		t.Error("failed load must not clobber the previous collection")
	}
	if m.Base() != "good" {
		t.Errorf("Base: got %q, want the previous base", m.Base())
	}
	if _, ok := AsLoadError(m.LastError()); !ok {
		t.Errorf("LastError: got %v", m.LastError())
	}

	// A later successful load clears the error.
	if _, err := m.SwitchWait(context.Background(), "good"); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if m.LastError() != nil {
		t.Errorf("LastError not cleared: %v", m.LastError())
	}
}

func TestManagerSupersedesInFlightLoad(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	slowDocs := namedDocs("Slow")

	slow := fetch.Func(func(ctx context.Context, location string) ([]byte, error) {
		if location == DefinitionDocument {
			select {
			case started <- struct{}{}:
			default:
			}
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		doc, ok := slowDocs[location]
		if !ok {
			return nil, fetch.ErrNotFound
		}
		return []byte(doc), nil
	})

	m := NewManager(baseFetchers(map[string]fetch.Fetcher{
		"slow": slow,
		"fast": mapFetcher(namedDocs("Fast")),
	}))

	type outcome struct {
		col *Collection
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		col, err := m.SwitchWait(context.Background(), "slow")
		done <- outcome{col, err}
	}()

	// Wait until the slow load is actually in flight, then supersede it.
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("slow load never started")
	}

	fastCol, err := m.SwitchWait(context.Background(), "fast")
	if err != nil {
		t.Fatalf("superseding load failed: %v", err)
	}
	close(release)

	out := <-done
	if !errors.Is(out.err, context.Canceled) {
		t.Errorf("superseded load: got err %v, want context.Canceled", out.err)
	}
	if out.col != nil {
		t.Errorf("superseded load returned a collection: %v", out.col)
	}

	cur, ok := m.Current()
	if !ok || cur.ID != fastCol.ID {
		t.Error("stale load clobbered the newer collection")
	}
	if m.Base() != "fast" {
		t.Errorf("Base: got %q", m.Base())
	}
	if m.LastError() != nil {
		t.Errorf("a discarded stale load must not record an error, got %v", m.LastError())
	}
}

func TestManagerAsyncSwitch(t *testing.T) {
	m := NewManager(baseFetchers(map[string]fetch.Fetcher{
		"a": mapFetcher(namedDocs("Alpha")),
	}))

	m.Switch(context.Background(), "a")

	deadline := time.After(5 * time.Second)
	for {
		if _, ok := m.Current(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background switch never completed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if m.Base() != "a" {
		t.Errorf("Base: got %q", m.Base())
	}
}
