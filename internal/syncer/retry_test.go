package syncer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrier_SucceedsOnThirdAttempt(t *testing.T) {
	var s noSleep
	r := Retrier{Attempts: 3, BaseDelay: time.Second, Sleep: s.sleep}

	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(s.delays) != 2 || s.delays[0] != time.Second || s.delays[1] != 2*time.Second {
		t.Errorf("expected linear delays 1s, 2s, got %v", s.delays)
	}
}

func TestRetrier_GivesUpAfterLastAttempt(t *testing.T) {
	var s noSleep
	r := Retrier{Attempts: 3, BaseDelay: time.Second, Sleep: s.sleep}

	calls := 0
	want := errors.New("permanent")
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", calls)
	}
	if len(s.delays) != 2 {
		t.Errorf("expected no sleep after the last attempt, got %v", s.delays)
	}
}

func TestRetrier_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := Retrier{Attempts: 3, BaseDelay: time.Hour}

	calls := 0
	err := r.Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one failed call, got %d calls and %v", calls, err)
	}
}

func TestRetrier_DefaultAttempts(t *testing.T) {
	var s noSleep
	calls := 0
	_ = Retrier{Sleep: s.sleep}.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != DefaultAttempts {
		t.Errorf("expected %d calls, got %d", DefaultAttempts, calls)
	}
}
