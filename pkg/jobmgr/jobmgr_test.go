package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestStartAsyncReportsLifecycle(t *testing.T) {
	var mu sync.Mutex
	var got []Status
	m := NewManager(func(st Status) {
		mu.Lock()
		got = append(got, st)
		mu.Unlock()
	})

	boom := errors.New("boom")
	if err := m.StartAsync(context.Background(), "ok", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := m.StartAsync(context.Background(), "bad", func(context.Context) error { return boom }); err != nil {
		t.Fatal(err)
	}
	m.Wait()

	states := map[string][]State{}
	for _, st := range got {
		states[st.Job] = append(states[st.Job], st.State)
		if st.State == Failed && !errors.Is(st.Err, boom) {
			t.Fatalf("failed status carries %v, want %v", st.Err, boom)
		}
	}
	if s := states["ok"]; len(s) != 2 || s[0] != Running || s[1] != Done {
		t.Fatalf("ok job states = %v", s)
	}
	if s := states["bad"]; len(s) != 2 || s[0] != Running || s[1] != Failed {
		t.Fatalf("bad job states = %v", s)
	}
	if l := m.List(); len(l) != 0 {
		t.Fatalf("jobs still listed after Wait: %v", l)
	}
}

func TestStartAsyncRejectsDuplicateName(t *testing.T) {
	m := NewManager(nil)
	release := make(chan struct{})

	err := m.StartAsync(context.Background(), "sync", func(context.Context) error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.StartAsync(context.Background(), "sync", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected duplicate job name to be rejected")
	}

	close(release)
	m.Wait()
}

func TestStopCancelsJob(t *testing.T) {
	m := NewManager(nil)
	started := make(chan struct{})

	err := m.StartAsync(context.Background(), "long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started
	if err := m.Stop("long"); err != nil {
		t.Fatal(err)
	}
	m.Wait()

	if err := m.Stop("long"); err == nil {
		t.Fatal("expected error stopping a finished job")
	}
}

func TestJobOutlivesParentContext(t *testing.T) {
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var jobErr error
	err := m.StartAsync(ctx, "detached", func(ctx context.Context) error {
		jobErr = ctx.Err()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	m.Wait()
	if jobErr != nil {
		t.Fatalf("job context already done: %v", jobErr)
	}
}
