package sim

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

func TestRandomActionDeterministic(t *testing.T) {
	cfg := config.Default().RNG
	a := NewRandomAction(22, cfg)
	b := NewRandomAction(22, cfg)

	in := core.NewPad(core.ButtonL, 30, -30)
	for i := 0; i < 500; i++ {
		pa, pb := a.Pad(in), b.Pad(in)
		if !pa.Equal(pb) {
			t.Fatalf("step %d: same seed diverged: %v vs %v", i, pa, pb)
		}
	}
}

func TestRandomActionSeedsDiffer(t *testing.T) {
	cfg := config.Default().RNG
	a := NewRandomAction(1, cfg)
	b := NewRandomAction(2, cfg)

	in := core.NewPad(core.ButtonL, 0, 0)
	same := true
	for i := 0; i < 500; i++ {
		if !a.Pad(in).Equal(b.Pad(in)) {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical streams")
	}
}

func TestRandomActionWindowBudget(t *testing.T) {
	cfg := config.Default().RNG // 5 random actions per 100 steps
	r := NewRandomAction(12345, cfg)

	// L is never part of a random pad, so a missing L marks a random action
	in := core.NewPad(core.ButtonL, 0, 0)
	for window := 0; window < 10; window++ {
		random := 0
		for i := 0; i < cfg.MaxWindowLength; i++ {
			out := r.Pad(in)
			if !out.Pressed(core.ButtonL) {
				random++
				if out.StickX < -core.StickMax || out.StickX > core.StickMax ||
					out.StickY < -core.StickMax || out.StickY > core.StickMax {
					t.Errorf("random stick out of range: %v", out)
				}
				if out.Button&^(core.ButtonA|core.ButtonB|core.ButtonZ) != 0 {
					t.Errorf("random pad has unexpected buttons: %v", out.Button)
				}
			}
		}
		if random > cfg.MaxRandomAction {
			t.Errorf("window %d: %d random actions, want at most %d", window, random, cfg.MaxRandomAction)
		}
		if random == 0 {
			t.Errorf("window %d: no random actions", window)
		}
	}
}

func TestRandomActionDisabled(t *testing.T) {
	cfg := config.Default().RNG
	cfg.MaxRandomAction = 0
	r := NewRandomAction(7, cfg)

	in := core.NewPad(core.ButtonA|core.ButtonR, 12, 34)
	for i := 0; i < 300; i++ {
		if out := r.Pad(in); !out.Equal(in) {
			t.Fatalf("step %d: pad changed with no random actions: %v", i, out)
		}
	}
}

// testLayout is a short course with the star within a single jump.
func testLayout() Layout {
	return Layout{Length: 20, Star: Box{X: 3, Y: 3, W: 1, H: 1}}
}

func TestWorldJumpReachesStar(t *testing.T) {
	w := NewWorld(testLayout())
	pad := core.NewPad(core.ButtonA, core.StickMax, 0)

	for i := 0; i < 30 && !w.State().HasWon(); i++ {
		w.Step(pad)
	}
	if !w.State().HasWon() {
		t.Fatalf("runner never reached the star: %v", w.State())
	}
}

func TestWorldStarNeedsJump(t *testing.T) {
	w := NewWorld(testLayout())
	pad := core.NewPad(0, core.StickMax, 0)

	for i := 0; i < 60; i++ {
		w.Step(pad)
	}
	if w.State().HasWon() {
		t.Error("star should be out of reach without jumping")
	}
	if x := w.State().Pos[0]; x != float32(20-RunnerW) {
		t.Errorf("runner should stop at the course end, x = %v", x)
	}
}

func TestWorldSpikeKnocksBack(t *testing.T) {
	w := NewWorld(Layout{Length: 40, Star: Box{X: 35, Y: 3, W: 1, H: 1}, Spikes: []Box{{X: 5, Y: 0, W: 1, H: 1}}})
	pad := core.NewPad(0, core.StickMax, 0)

	knocked := false
	for i := 0; i < 20; i++ {
		w.Step(pad)
		if w.State().Pos[0] == 0 && i > 0 {
			knocked = true
			break
		}
	}
	if !knocked {
		t.Error("walking into a spike should knock the runner back to the start")
	}
	if w.falls != 1 {
		t.Errorf("falls = %d, want 1", w.falls)
	}
}

func TestWorldGroundPound(t *testing.T) {
	w := NewWorld(testLayout())
	w.Step(core.NewPad(core.ButtonA, 0, 0))
	if w.State().Vel[1] <= 0 {
		t.Fatalf("jump should move up, vel = %v", w.State().Vel)
	}
	w.Step(core.Pad{})
	w.Step(core.Pad{})

	w.Step(core.NewPad(core.ButtonZ, 0, 0))
	if got := w.State().Vel[1]; got != -MaxFall {
		t.Errorf("ground pound velocity = %v, want %v", got, -MaxFall)
	}
}

func TestGenerateLayoutDeterministic(t *testing.T) {
	a, b := GenerateLayout(99), GenerateLayout(99)
	if a.Star != b.Star || len(a.Spikes) != len(b.Spikes) {
		t.Fatalf("layouts differ: %+v vs %+v", a, b)
	}
	for i := range a.Spikes {
		if a.Spikes[i] != b.Spikes[i] {
			t.Errorf("spike %d differs", i)
		}
	}
	if len(a.Spikes) == 0 {
		t.Error("layout should have spikes")
	}
	for _, s := range a.Spikes {
		if s.Right() >= a.Star.X {
			t.Errorf("spike %+v overlaps the star approach", s)
		}
	}
}

func TestEngineSeededReplayMatches(t *testing.T) {
	opts := engine.Options{Seed: core.SeedOf(22), RNG: config.Default().RNG}
	first := NewWithLayout(opts, GenerateLayout(22))
	second := NewWithLayout(opts, GenerateLayout(22))

	var sol core.Solution
	for i := 0; i < 400; i++ {
		raw := core.NewPad(core.ButtonA, core.StickMax, 0)
		eff := first.RNGPad(raw.Clone())
		first.Step(eff)
		sol = append(sol, eff)
	}

	for i, stored := range sol {
		if got := second.RNGPad(stored); !got.Equal(stored) {
			t.Fatalf("step %d: recomputed %v, stored %v", i, got, stored)
		}
		second.Step(stored)
	}

	if first.State() != second.State() {
		t.Errorf("final states differ:\n%v\n%v", first.State(), second.State())
	}
}

func TestEngineUnseededLeavesPadAlone(t *testing.T) {
	e := NewWithLayout(engine.Options{}, testLayout())
	in := core.NewPad(core.ButtonB, -5, 5)
	for i := 0; i < 200; i++ {
		if out := e.RNGPad(in); !out.Equal(in) {
			t.Fatalf("unseeded engine changed pad at %d: %v", i, out)
		}
	}
}

func TestNewRejectsInvalidRNG(t *testing.T) {
	rng := config.Default().RNG
	rng.MaxWindowLength = 0

	_, err := New(context.Background(), engine.Options{Seed: core.SeedOf(1), RNG: rng})
	if err == nil {
		t.Fatal("expected error for empty window")
	}

	_, err = engine.Create(context.Background(), ID, engine.Options{Seed: core.SeedOf(1), RNG: rng})
	if !errors.Is(err, engine.ErrInstantiation) {
		t.Errorf("registry should report ErrInstantiation, got %v", err)
	}
}

func TestNewHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(ctx, engine.Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type captureTarget struct{ r engine.Renderer }

func (c *captureTarget) Attach(r engine.Renderer) { c.r = r }

func TestEngineAttachesAndRenders(t *testing.T) {
	target := &captureTarget{}
	eng, err := engine.Create(context.Background(), ID, engine.Options{Target: target})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	defer eng.Close()

	if target.r == nil {
		t.Fatal("engine should attach itself to the render target")
	}

	frame := target.r.Render(60, 12).String()
	if !strings.ContainsRune(frame, RunnerBody) {
		t.Error("frame should contain the runner")
	}
	if !strings.Contains(frame, "Stars: 0") {
		t.Error("frame should contain the HUD")
	}

	eng.SetAudioEnabled(false)
	if !strings.Contains(target.r.Render(60, 12).String(), "muted") {
		t.Error("muted audio should be indicated")
	}
}

func TestEngineClosedIgnoresSteps(t *testing.T) {
	e := NewWithLayout(engine.Options{}, testLayout())
	e.Step(core.Pad{})
	if err := e.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	e.Step(core.Pad{})
	if e.Steps() != 1 {
		t.Errorf("Steps() = %d, want 1", e.Steps())
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}
