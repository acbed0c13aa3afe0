package identity

import (
	"testing"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestRate_FirstSightingIsZero(t *testing.T) {
	rc := NewRateCounter[int32]()

	assert.Equal(t, domain.IOCounters{}, rc.Rate(100, domain.IOCounters{Received: 100, Sent: 50}))
	assert.Equal(t, domain.IOCounters{Received: 300}, rc.Rate(100, domain.IOCounters{Received: 400, Sent: 50}))
}

func TestRate_RollbackYieldsZeroPerField(t *testing.T) {
	rc := NewRateCounter[int32]()
	rc.Rate(1, domain.IOCounters{Received: 1000, Sent: 1000})

	delta := rc.Rate(1, domain.IOCounters{Received: 10, Sent: 1500})
	assert.Equal(t, uint64(0), delta.Received)
	assert.Equal(t, uint64(500), delta.Sent)

	// the rolled-back value becomes the new baseline
	delta = rc.Rate(1, domain.IOCounters{Received: 30, Sent: 1500})
	assert.Equal(t, uint64(20), delta.Received)
}

func TestRate_Retain(t *testing.T) {
	rc := NewRateCounter[int32]()
	rc.Rate(1, domain.IOCounters{})
	rc.Rate(2, domain.IOCounters{})

	rc.Retain(func(pid int32) bool { return pid == 2 })
	assert.Equal(t, 1, rc.Len())
	assert.Equal(t, domain.IOCounters{}, rc.Rate(1, domain.IOCounters{Received: 5}))
}
