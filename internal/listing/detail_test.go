package listing

import (
	"context"
	"errors"
	"testing"
)

func recordFetcher(calls *[]int64) DetailFetcher[int64, string] {
	return func(ctx context.Context, id int64) (string, error) {
		*calls = append(*calls, id)
		if id < 0 {
			return "", errors.New("user not found")
		}
		return "user-" + string(rune('0'+id)), nil
	}
}

func TestDetailSelectAndApply(t *testing.T) {
	var calls []int64
	d := NewDetail(recordFetcher(&calls))

	if _, ok := d.Selected(); ok {
		t.Fatal("new detail should be closed")
	}
	if p := d.Reload(); p != nil {
		t.Error("Reload with nothing selected should return nil")
	}

	if err := d.Run(context.Background(), d.Select(7)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, ok := d.Record()
	if !ok || rec != "user-7" {
		t.Errorf("Record = %q, %v", rec, ok)
	}
	if !d.IsOpen(7) || d.IsOpen(3) {
		t.Error("IsOpen should only match the selected id")
	}
}

func TestDetailLastSelectionWins(t *testing.T) {
	var calls []int64
	d := NewDetail(recordFetcher(&calls))
	ctx := context.Background()

	first := d.Select(3)
	second := d.Select(5)

	secondRes := second.Do(ctx)
	firstRes := first.Do(ctx)

	if !d.Apply(secondRes) {
		t.Fatal("latest selection should apply")
	}
	if d.Apply(firstRes) {
		t.Fatal("result for an earlier selection must be discarded")
	}
	if rec, _ := d.Record(); rec != "user-5" {
		t.Errorf("Record = %q, want user-5", rec)
	}
}

func TestDetailSelectingAnotherDropsRecord(t *testing.T) {
	var calls []int64
	d := NewDetail(recordFetcher(&calls))
	ctx := context.Background()

	d.Run(ctx, d.Select(3))
	d.Select(4)
	if _, ok := d.Record(); ok {
		t.Error("record of the previous selection should be dropped")
	}
}

func TestDetailReloadKeepsRecordWhileLoading(t *testing.T) {
	var calls []int64
	d := NewDetail(recordFetcher(&calls))
	ctx := context.Background()

	d.Run(ctx, d.Select(3))
	p := d.Reload()
	if p == nil || p.ID != 3 {
		t.Fatalf("Reload = %+v", p)
	}
	if _, ok := d.Record(); !ok {
		t.Error("reload should keep the current record until the result arrives")
	}
	if !d.Loading() {
		t.Error("detail should be loading")
	}
	d.Run(ctx, p)
	if len(calls) != 2 {
		t.Errorf("fetch calls = %v, want 2", calls)
	}
}

func TestDetailCloseDiscardsInflight(t *testing.T) {
	var calls []int64
	d := NewDetail(recordFetcher(&calls))

	p := d.Select(2)
	d.Close()
	if d.Apply(p.Do(context.Background())) {
		t.Error("result arriving after Close must be discarded")
	}
	if _, ok := d.Record(); ok {
		t.Error("closed detail should have no record")
	}
}

func TestDetailErrorKeepsRecordOfSameSelection(t *testing.T) {
	calls := 0
	fail := false
	d := NewDetail(func(ctx context.Context, id int64) (string, error) {
		calls++
		if fail {
			return "", errors.New("timeout")
		}
		return "ok", nil
	})
	ctx := context.Background()

	d.Run(ctx, d.Select(1))
	fail = true
	if err := d.Run(ctx, d.Reload()); err == nil {
		t.Fatal("expected reload error")
	}
	if rec, ok := d.Record(); !ok || rec != "ok" {
		t.Errorf("Record = %q, %v; want previous record kept", rec, ok)
	}
	if d.Err() == nil {
		t.Error("Err should be set")
	}
}
