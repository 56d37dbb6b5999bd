package game

import "time"

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }

func (t timeTicker) Stop() { t.t.Stop() }

// timer is one running countdown. Closing stop ends its goroutine.
type timer struct {
	ticker Ticker
	stop   chan struct{}
}

func (c *Controller) startTimerLocked() {
	c.stopTimerLocked()

	c.gen++
	t := &timer{
		ticker: c.newTicker(time.Second),
		stop:   make(chan struct{}),
	}
	c.timer = t

	go c.runTimer(t, c.gen)
}

func (c *Controller) stopTimerLocked() {
	if c.timer == nil {
		return
	}

	c.timer.ticker.Stop()
	close(c.timer.stop)
	c.timer = nil
}

func (c *Controller) runTimer(t *timer, gen uint64) {
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C():
			if !c.tick(gen) {
				return
			}
		}
	}
}
