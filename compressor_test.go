package pocketplus

import "testing"

func newTestCompressor(t *testing.T, params Params) *Compressor {
	t.Helper()

	c, err := NewCompressor(params)
	if err != nil {
		t.Fatal(err)
	}

	return c
}

func TestScheduleForcesVerbatimStart(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 8, Robustness: 2, NewMaskEvery: 1, SendMaskEvery: 1, UncompressedEvery: 1})

	for ti := range 3 {
		c.t = ti

		opts := c.schedule()
		if opts.NewMask || !opts.SendMask || !opts.Uncompressed {
			t.Errorf("packet %d: got %+v, want send mask and uncompressed", ti, opts)
		}
	}

	// The periods must not tick during the start sequence.
	if c.newMaskIn != 1 || c.sendMaskIn != 1 || c.uncompressedIn != 1 {
		t.Error("scheduler counted down during the start sequence")
	}
}

func TestSchedulePeriods(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 8, NewMaskEvery: 4, SendMaskEvery: 2, UncompressedEvery: 8})
	c.t = 1 // past the start sequence

	for call := 1; call <= 8; call++ {
		opts := c.schedule()

		if want := call%4 == 0; opts.NewMask != want {
			t.Errorf("call %d: NewMask %v, want %v", call, opts.NewMask, want)
		}

		if want := call%2 == 0; opts.SendMask != want {
			t.Errorf("call %d: SendMask %v, want %v", call, opts.SendMask, want)
		}

		if want := call%8 == 0; opts.Uncompressed != want {
			t.Errorf("call %d: Uncompressed %v, want %v", call, opts.Uncompressed, want)
		}
	}
}

func TestScheduleDisabledPeriods(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 8})
	c.t = 1

	for range 20 {
		if opts := c.schedule(); opts != (PacketOptions{}) {
			t.Fatalf("disabled scheduler fired: %+v", opts)
		}
	}
}

func TestEffectiveRobustnessDuringStart(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 8, Robustness: 5})

	for ti := range 6 {
		c.t = ti

		if v := c.effectiveRobustness(); v != 5 {
			t.Errorf("packet %d: got %d, want 5", ti, v)
		}
	}
}

func TestEffectiveRobustnessExtendsOverQuietPackets(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 16, Robustness: 2})
	c.t = 10
	c.historyIndex = 10 % historySlots

	// Packets three and four back carried no mask changes, five back
	// did: the window stretches by exactly two.
	c.changeHistory[(c.historyIndex+historySlots-5)%historySlots].Set(0, 1)

	if v := c.effectiveRobustness(); v != 4 {
		t.Errorf("got %d, want 4", v)
	}
}

func TestEffectiveRobustnessCap(t *testing.T) {
	t.Parallel()

	// A long quiet stretch caps at the widest announceable value.
	for _, robustness := range []int{0, 3, 7} {
		c := newTestCompressor(t, Params{PacketBits: 16, Robustness: robustness})
		c.t = 40

		if v := c.effectiveRobustness(); v != historySlots-1 {
			t.Errorf("robustness %d: got %d, want %d", robustness, v, historySlots-1)
		}
	}
}

func TestEffectiveRobustnessBoundedByAge(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 16, Robustness: 2})
	c.t = 3
	c.historyIndex = 3

	// Only one packet exists beyond the base window.
	if v := c.effectiveRobustness(); v != 3 {
		t.Errorf("got %d, want 3", v)
	}
}

func TestMaskRestartedRecently(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 16, Robustness: 3})
	c.t = 10
	c.flagIndex = 10 % historySlots

	if c.maskRestartedRecently(true, 3) {
		t.Error("a single restart must not count")
	}

	// Most recent packet restarted.
	c.flagHistory[9] = true

	if !c.maskRestartedRecently(true, 3) {
		t.Error("current restart plus one in window")
	}

	if c.maskRestartedRecently(false, 3) {
		t.Error("one restart in window is not enough")
	}

	// Third packet back restarted as well.
	c.flagHistory[7] = true

	if !c.maskRestartedRecently(false, 3) {
		t.Error("two restarts within the window")
	}

	// A narrower window leaves the older restart out.
	if c.maskRestartedRecently(false, 2) {
		t.Error("window of two should only see one restart")
	}
}

func TestFillWindowWrapsRing(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 16, Robustness: 2})
	c.t = 20
	c.historyIndex = 1

	c.maskChange.Set(0, 1)
	c.changeHistory[0].Set(1, 1)                // one back
	c.changeHistory[historySlots-1].Set(2, 1)   // two back, across the wrap
	c.changeHistory[historySlots-2].Set(3, 1)   // three back, outside the window

	c.fillWindow()

	want := vectorFrom(t, 16, 0, 1, 2)
	if !c.window.Equal(want) {
		t.Errorf("window %X, want %X", c.window.Bytes(), want.Bytes())
	}
}

func TestFillWindowLimitedByAge(t *testing.T) {
	t.Parallel()

	c := newTestCompressor(t, Params{PacketBits: 16, Robustness: 7})
	c.t = 1
	c.historyIndex = 1

	c.maskChange.Set(0, 1)
	c.changeHistory[0].Set(1, 1)

	c.fillWindow()

	if !c.window.Equal(vectorFrom(t, 16, 0, 1)) {
		t.Errorf("window %X", c.window.Bytes())
	}
}

func TestHasPositiveUpdates(t *testing.T) {
	t.Parallel()

	window := vectorFrom(t, 48, 2, 40)
	mask := vectorFrom(t, 48, 2, 40, 41)

	if hasPositiveUpdates(window, mask) {
		t.Error("window fully inside the mask")
	}

	mask.Set(40, 0)

	if !hasPositiveUpdates(window, mask) {
		t.Error("position 40 left the mask")
	}
}
