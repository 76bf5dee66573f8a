package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcherIngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var got []string
	w := NewWatcher(dir, []string{".txt"}, func(path string) {
		mu.Lock()
		got = append(got, path)
		mu.Unlock()
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	target := filepath.Join(dir, "avviso.txt")
	if err := os.WriteFile(target, []byte("Avviso pubblico."), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	ignored := filepath.Join(dir, "image.png")
	if err := os.WriteFile(ignored, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for file callback")
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, path := range got {
		if path == ignored {
			t.Error("callback fired for a filtered extension")
		}
	}
	if got[0] != target {
		t.Errorf("callback path = %q, want %q", got[0], target)
	}
}

func TestWatcherDebouncesBurstWrites(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0
	w := NewWatcher(dir, nil, func(path string) {
		mu.Lock()
		count++
		mu.Unlock()
	}, WithDebounce(150*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	target := filepath.Join(dir, "doc.md")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("rev"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("expected burst writes to collapse into 1 callback, got %d", count)
	}
}
