package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testBattery(charge float64) *Battery {
	return &Battery{
		ID:               "battery_0",
		CapacityKWh:      1.6,
		MaxChargeRateKW:  1.3,
		CurrentChargeKWh: charge,
		Location:         LocationInScooter,
		ScooterID:        "scooter_0",
	}
}

func TestBattery_ChargeLevel(t *testing.T) {
	b := testBattery(0.8)
	assert.InDelta(t, 0.5, b.ChargeLevel(), 1e-9)
}

func TestBattery_IsFullWithinTolerance(t *testing.T) {
	assert.True(t, testBattery(1.6).IsFull())
	assert.True(t, testBattery(1.6-5e-5).IsFull())
	assert.False(t, testBattery(1.5).IsFull())
}

func TestBattery_TimeToFullCharge(t *testing.T) {
	b := testBattery(0.3)
	// 1.3 kWh remaining at 1.3 kW is exactly one hour.
	assert.InDelta(t, 3600.0, b.TimeToFullCharge(1.3), 1e-6)
	assert.Equal(t, 0.0, testBattery(1.6).TimeToFullCharge(1.3))
}

func TestBattery_AddChargeCapsAtCapacity(t *testing.T) {
	b := testBattery(1.5)
	b.AddCharge(0.5)
	assert.Equal(t, 1.6, b.CurrentChargeKWh)
}

func TestBattery_ConsumeEnergyFloorsAtZero(t *testing.T) {
	b := testBattery(0.1)
	b.ConsumeEnergy(0.5)
	assert.Equal(t, 0.0, b.CurrentChargeKWh)
}

func TestPosition_Distance(t *testing.T) {
	a := Position{X: 1, Y: 2}
	b := Position{X: 4, Y: 6}
	assert.Equal(t, 7.0, a.Distance(b))
	assert.Equal(t, 0.0, a.Distance(a))
}

func TestPosition_NeighborsClippedAtEdges(t *testing.T) {
	corner := Position{X: 0, Y: 0}
	assert.ElementsMatch(t, []Position{{1, 0}, {0, 1}}, corner.Neighbors(10, 10))

	center := Position{X: 5, Y: 5}
	assert.Len(t, center.Neighbors(10, 10), 4)
}
