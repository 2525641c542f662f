package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPersistence_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := New(reg)

	p.Checkpoint(ResultCreated)
	p.Checkpoint(ResultUpdated)
	p.Checkpoint(ResultUpdated)
	p.Finalize(ResultOK)
	p.ObserveWrite("create", 0.002)
	p.SessionOpened()
	p.SessionOpened()
	p.SessionClosed()

	require.Equal(t, 1.0, testutil.ToFloat64(p.checkpoints.WithLabelValues(ResultCreated)))
	require.Equal(t, 2.0, testutil.ToFloat64(p.checkpoints.WithLabelValues(ResultUpdated)))
	require.Equal(t, 1.0, testutil.ToFloat64(p.finalizes.WithLabelValues(ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(p.openEdits))
	require.Equal(t, 1, testutil.CollectAndCount(p.writeTime))
}

func TestPersistence_NilIsNoop(t *testing.T) {
	var p *Persistence
	p.Checkpoint(ResultFailed)
	p.Finalize(ResultFailed)
	p.ObserveWrite("update", 1)
	p.SessionOpened()
	p.SessionClosed()
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) }, "duplicate registration should panic")
}
