package inventory

import "testing"

func TestTrackerUpdate(t *testing.T) {
	var tr Tracker
	tr.Update(1, 100)
	if tr.NetExposure() != 1 {
		t.Fatalf("expected net 1")
	}
	if tr.AvgCost() != 100 {
		t.Fatalf("expected cost 100 got %f", tr.AvgCost())
	}
	tr.Update(1, 110) // cost should move toward 105
	if tr.AvgCost() <= 100 || tr.AvgCost() >= 110 {
		t.Fatalf("unexpected avg cost %f", tr.AvgCost())
	}
}

func TestTrackerReduceAndFlip(t *testing.T) {
	var tr Tracker
	tr.Update(4, 100)
	tr.Update(-1, 120) // 减仓不改成本
	if tr.AvgCost() != 100 || tr.NetExposure() != 3 {
		t.Fatalf("unexpected after reduce: net=%f cost=%f", tr.NetExposure(), tr.AvgCost())
	}
	tr.Update(-5, 90) // 反手到 -2
	if tr.NetExposure() != -2 || tr.AvgCost() != 90 {
		t.Fatalf("unexpected after flip: net=%f cost=%f", tr.NetExposure(), tr.AvgCost())
	}
	tr.Update(2, 95)
	if tr.NetExposure() != 0 || tr.AvgCost() != 0 {
		t.Fatalf("flat position should reset cost")
	}
}
