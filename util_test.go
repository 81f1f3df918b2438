package main

import (
	"math"
	"strings"
	"testing"
)

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 10) != 5 {
		t.Error("in-range value should pass through")
	}
	if Clamp(-1, 0, 10) != 0 {
		t.Error("below min should clamp to min")
	}
	if Clamp(11, 0, 10) != 10 {
		t.Error("above max should clamp to max")
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(0, 0, 3, 4); d != 5 {
		t.Errorf("expected 5, got %v", d)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, -math.Pi},
		{math.Pi / 2, math.Pi / 2},
	}
	for _, c := range cases {
		if got := NormalizeAngle(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestGenerateID(t *testing.T) {
	id := GenerateID(8)
	if len(id) != 16 {
		t.Errorf("8 bytes should hex-encode to 16 chars, got %d", len(id))
	}
	if id == GenerateID(8) {
		t.Error("consecutive ids should differ")
	}
}

func TestRound1(t *testing.T) {
	if round1(1.26) != 1.3 {
		t.Errorf("expected 1.3, got %v", round1(1.26))
	}
	if round1(-1.24) != -1.2 {
		t.Errorf("expected -1.2, got %v", round1(-1.24))
	}
}

func TestRandRangeBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := randRange(-5, 5)
		if v < -5 || v >= 5 {
			t.Fatalf("randRange out of bounds: %v", v)
		}
	}
}

func TestWeaponByIDFallback(t *testing.T) {
	if w := WeaponByID(-1); w.ID != WeaponPistol {
		t.Error("negative id should fall back to the pistol")
	}
	if w := WeaponByID(99); w.ID != WeaponPistol {
		t.Error("out-of-range id should fall back to the pistol")
	}
	if w := WeaponByID(WeaponSniper); w.Name != "Sniper" {
		t.Errorf("expected Sniper, got %s", w.Name)
	}
}

func TestCharacterColorFallback(t *testing.T) {
	if CharacterColor(-1) != characterColors[0] {
		t.Error("invalid choice should use the first color")
	}
	if CharacterColor(2) != characterColors[2] {
		t.Error("valid choice should map directly")
	}
}

func TestKillFlavorFillsNames(t *testing.T) {
	s := killFlavor("Ace", "Bob")
	if !strings.Contains(s, "Ace") || !strings.Contains(s, "Bob") {
		t.Errorf("kill flavor should name both parties: %q", s)
	}

	storm := killFlavor("The Storm", "Bob")
	if !strings.Contains(storm, "Bob") || !strings.Contains(storm, "The Storm") {
		t.Errorf("storm kill flavor should name the victim and the storm: %q", storm)
	}
}
