package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verilab/regress/types"
)

func TestVirtualClockAdvance(t *testing.T) {
	clock := NewVirtualClock()
	assert.Equal(t, 0.0, clock.Now(types.UnitNS))

	clock.Advance(1500, types.UnitNS)
	assert.Equal(t, 1500.0, clock.Now(types.UnitNS))
	assert.Equal(t, 1.5, clock.Now(types.UnitUS))

	clock.Advance(1, types.UnitMS)
	assert.Equal(t, 1001500.0, clock.Now(types.UnitNS))
}

func TestVirtualClockTimers(t *testing.T) {
	clock := NewVirtualClock()
	early := clock.After(100, types.UnitNS)
	late := clock.After(1, types.UnitUS)

	clock.Advance(100, types.UnitNS)
	select {
	case <-early:
	default:
		t.Fatal("timer at deadline should have fired")
	}
	select {
	case <-late:
		t.Fatal("later timer should not have fired yet")
	default:
	}

	clock.Advance(900, types.UnitNS)
	select {
	case <-late:
	default:
		t.Fatal("later timer should have fired")
	}
}

func TestVirtualClockZeroTimerFiresImmediately(t *testing.T) {
	clock := NewVirtualClock()
	ch := clock.After(0, types.UnitNS)
	select {
	case <-ch:
	default:
		t.Fatal("zero-delay timer should be closed immediately")
	}
}

func TestVirtualClockStop(t *testing.T) {
	clock := NewVirtualClock()
	require.False(t, clock.Stopped())
	clock.Stop()
	assert.True(t, clock.Stopped())
}

func TestWallClockMonotonic(t *testing.T) {
	clock := NewWallClock()
	a := clock.Now(types.UnitNS)
	b := clock.Now(types.UnitNS)
	assert.GreaterOrEqual(t, b, a)

	clock.Stop()
	assert.True(t, clock.Stopped())
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, 1.0, toNS(1, types.UnitNS))
	assert.Equal(t, 1.0, toNS(1, types.UnitStep))
	assert.Equal(t, 1e3, toNS(1, types.UnitUS))
	assert.Equal(t, 1e6, toNS(1, types.UnitMS))
	assert.Equal(t, 1e9, toNS(1, types.UnitSec))
	assert.Equal(t, 2.0, fromNS(2e9, types.UnitSec))
}
