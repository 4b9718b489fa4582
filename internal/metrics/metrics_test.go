package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_RegistersWithoutPanicking(t *testing.T) {
	m := New()
	assert.NotNil(t, m)
}

func TestFiresTotal_IncrementsPerChannelLabel(t *testing.T) {
	m := New()
	m.FiresTotal.WithLabelValues("1").Inc()
	m.FiresTotal.WithLabelValues("1").Inc()
	m.FiresTotal.WithLabelValues("2").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.FiresTotal.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FiresTotal.WithLabelValues("2")))
}

func TestEmergencyActive_ReflectsLatchState(t *testing.T) {
	m := New()
	m.EmergencyActive.Set(1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EmergencyActive))
	m.EmergencyActive.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.EmergencyActive))
}
