package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakePinger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestHealthMonitor_Check(t *testing.T) {
	pinger := &fakePinger{}
	m := NewHealthMonitor(pinger, time.Second)

	assert.False(t, m.Status().Ready)
	assert.Zero(t, m.Status().CheckedAt)

	status := m.Check(context.Background())
	assert.True(t, status.Ready)
	assert.Empty(t, status.Error)
	assert.NotZero(t, status.CheckedAt)
	assert.Equal(t, status, m.Status())

	pinger.set(errors.New("connection refused"))
	status = m.Check(context.Background())
	assert.False(t, status.Ready)
	assert.Equal(t, "connection refused", status.Error)
	assert.Equal(t, status, m.Status())
}

func TestHealthMonitor_StartStop(t *testing.T) {
	pinger := &fakePinger{}
	m := NewHealthMonitor(pinger, time.Second)

	require.NoError(t, m.Start("@every 1s"))
	assert.True(t, m.Status().Ready)
	assert.Equal(t, 1, pinger.count())
	require.Eventually(t, func() bool { return pinger.count() >= 2 }, 5*time.Second, 20*time.Millisecond)
	m.Stop()
}

func TestHealthMonitor_InvalidSchedule(t *testing.T) {
	m := NewHealthMonitor(&fakePinger{}, time.Second)
	assert.Error(t, m.Start("every now and then"))
}
