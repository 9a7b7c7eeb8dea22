package main

import (
	"strings"
	"testing"
)

func TestWriteAggregate_CountsHeldCrystals(t *testing.T) {
	all := []runStats{
		{runIndex: 1, crystalPower: 0.8, finalWave: 4, kills: 30, firstBreach: 900},
		{runIndex: 2, crystalPower: 0, finalWave: 6, kills: 50, firstBreach: 700},
		{runIndex: 3, crystalPower: 1.0, finalWave: 3, kills: 20, firstBreach: -1},
	}

	var out strings.Builder
	writeAggregate(&out, all)
	got := out.String()

	if !strings.Contains(got, "crystal_held=2/3") {
		t.Errorf("aggregate missing held count:\n%s", got)
	}
	if !strings.Contains(got, "avg_first_breach=800.0") {
		t.Errorf("breach average wrong (unbreached runs must not count):\n%s", got)
	}
}

func TestAvg_EmptyIsZero(t *testing.T) {
	if got := avg(10, 0); got != 0 {
		t.Fatalf("avg over zero runs = %v, want 0", got)
	}
	if got := avg(9, 3); got != 3 {
		t.Fatalf("avg(9,3) = %v, want 3", got)
	}
}

func TestTickString_NeverIsNA(t *testing.T) {
	if got := tickString(-1); got != "n/a" {
		t.Fatalf("tickString(-1) = %q, want n/a", got)
	}
	if got := tickString(420); got != "420" {
		t.Fatalf("tickString(420) = %q", got)
	}
}

func TestAvgTickString_EmptyIsNA(t *testing.T) {
	if got := avgTickString(nil); got != "n/a" {
		t.Fatalf("avgTickString(nil) = %q, want n/a", got)
	}
	if got := avgTickString([]int{100, 200}); got != "150.0" {
		t.Fatalf("avgTickString = %q, want 150.0", got)
	}
}
