package core

import (
	"bytes"
	"testing"
	"time"
)

func TestPadWireLayout(t *testing.T) {
	p := Pad{Button: ButtonA | ButtonCRight, StickX: -80, StickY: 17}

	data, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() failed: %v", err)
	}

	// 0x8001 little endian, then the two signed sticks
	want := []byte{0x01, 0x80, 0xB0, 0x11}
	if !bytes.Equal(data, want) {
		t.Errorf("encoding = % x, want % x", data, want)
	}

	var back Pad
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() failed: %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("decoded %v, want %v", back, p)
	}
}

func TestPadUnmarshalWrongSize(t *testing.T) {
	var p Pad
	if err := p.UnmarshalBinary([]byte{1, 2, 3}); err != ErrPadSize {
		t.Errorf("expected ErrPadSize, got %v", err)
	}
}

func TestPadButtonOps(t *testing.T) {
	var p Pad
	p.Press(ButtonStart | ButtonB)

	if !p.Pressed(ButtonStart) || !p.Pressed(ButtonB) {
		t.Fatalf("expected Start and B pressed, got %v", p.Button)
	}
	if p.Pressed(ButtonA) {
		t.Error("A should not be pressed")
	}

	p.Release(ButtonStart)
	if p.Pressed(ButtonStart) {
		t.Error("Start should be released")
	}
	if !p.Pressed(ButtonB) {
		t.Error("releasing Start should not touch B")
	}
}

func TestPadCloneIsIndependent(t *testing.T) {
	p := Pad{Button: ButtonA}
	c := p.Clone()
	c.Press(ButtonZ)

	if p.Pressed(ButtonZ) {
		t.Error("modifying the clone changed the original")
	}
	if p.Equal(c) {
		t.Error("clone with extra button should not be equal")
	}
}

func TestNewPadClampsSticks(t *testing.T) {
	tests := []struct {
		x, y         int
		wantX, wantY int8
	}{
		{0, 0, 0, 0},
		{80, -80, 80, -80},
		{127, -128, 80, -80},
		{1000, 5, 80, 5},
	}

	for _, tt := range tests {
		p := NewPad(0, tt.x, tt.y)
		if p.StickX != tt.wantX || p.StickY != tt.wantY {
			t.Errorf("NewPad(%d, %d) = (%d, %d), want (%d, %d)", tt.x, tt.y, p.StickX, p.StickY, tt.wantX, tt.wantY)
		}
	}
}

func TestButtonString(t *testing.T) {
	if s := Button(0).String(); s != "-" {
		t.Errorf("empty button = %q, want \"-\"", s)
	}
	if s := (ButtonA | ButtonStart).String(); s != "A+Start" {
		t.Errorf("A|Start = %q, want \"A+Start\"", s)
	}
}

func TestParseSolution(t *testing.T) {
	sol := Solution{
		{Button: ButtonA, StickX: 10, StickY: -10},
		{Button: 0, StickX: 0, StickY: 0},
		{Button: ButtonZ | ButtonB, StickX: -80, StickY: 80},
	}

	data, err := sol.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() failed: %v", err)
	}
	if len(data) != 3*PadSize {
		t.Fatalf("expected %d bytes, got %d", 3*PadSize, len(data))
	}

	parsed, err := ParseSolution(data)
	if err != nil {
		t.Fatalf("ParseSolution() failed: %v", err)
	}
	for i := range sol {
		if !parsed[i].Equal(sol[i]) {
			t.Errorf("pad %d = %v, want %v", i, parsed[i], sol[i])
		}
	}

	if _, err := ParseSolution(data[:5]); err == nil {
		t.Error("expected error for truncated solution")
	}
}

func TestSolutionTruncateCopies(t *testing.T) {
	sol := Solution{{Button: ButtonA}, {Button: ButtonB}, {Button: ButtonZ}}

	cut := sol.Truncate(2)
	if len(cut) != 2 {
		t.Fatalf("Truncate(2) length = %d", len(cut))
	}
	cut[0].Press(ButtonStart)
	if sol[0].Pressed(ButtonStart) {
		t.Error("Truncate should not share the backing array")
	}

	if n := len(sol.Truncate(10)); n != 3 {
		t.Errorf("Truncate beyond length = %d, want 3", n)
	}
	if n := len(sol.Truncate(-1)); n != 0 {
		t.Errorf("Truncate(-1) = %d, want 0", n)
	}
}

func TestSolutionDuration(t *testing.T) {
	sol := make(Solution, 90)
	if d := sol.Duration(); d != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", d)
	}
}

func TestStateHasWon(t *testing.T) {
	if (SimulationState{}).HasWon() {
		t.Error("zero state should not be won")
	}
	if !(SimulationState{Stars: 1}).HasWon() {
		t.Error("one star should be won")
	}
}

func TestSpeedCell(t *testing.T) {
	s := NewSpeed(10000)
	if s.Load() != 10000 {
		t.Errorf("Load() = %v", s.Load())
	}
	s.Store(0.5)
	if s.Load() != 0.5 {
		t.Errorf("Load() after Store = %v", s.Load())
	}
}

func TestSeedString(t *testing.T) {
	if Unseeded.String() != "unseeded" {
		t.Errorf("Unseeded = %q", Unseeded.String())
	}
	if SeedOf(22).String() != "22" {
		t.Errorf("SeedOf(22) = %q", SeedOf(22).String())
	}
}
