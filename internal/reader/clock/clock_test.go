package clock_test

import (
	"testing"
	"sync/atomic"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	"github.com/justyntemme/webby-manga/internal/reader/clock"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	start := time.Unix(1000, 0)
	c := clock.NewFake(start)

	var fired []string
	c.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "late") })
	c.AfterFunc(100*time.Millisecond, func() {
		fired = append(fired, "early")
		assert.Equal(t, start.Add(100*time.Millisecond), c.Now())
	})

	c.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"early"}, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"early", "late"}, fired)
	assert.Equal(t, start.Add(300*time.Millisecond), c.Now())
}

func TestFakeStop(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(2 * time.Second)
	assert.False(t, called)
}

func TestFakeTimerScheduledFromCallback(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	count := 0
	c.AfterFunc(10*time.Millisecond, func() {
		count++
		c.AfterFunc(10*time.Millisecond, func() { count++ })
	})

	c.Advance(25 * time.Millisecond)
	assert.Equal(t, 2, count)
}

func TestFromClockDelegates(t *testing.T) {
	mock := bclock.NewMock()
	c := clock.FromClock(mock)
	assert.Equal(t, mock.Now(), c.Now())

	var fired atomic.Bool
	stopped := c.AfterFunc(time.Second, func() { t.Error("stopped timer fired") })
	c.AfterFunc(time.Second, func() { fired.Store(true) })
	assert.True(t, stopped.Stop())

	mock.Add(time.Second)
	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)
}
