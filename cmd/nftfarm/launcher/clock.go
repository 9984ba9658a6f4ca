package launcher

import (
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// wallClock reports a block height that advances once per period since
// start. It stands in for a chain head when the farm runs standalone.
type wallClock struct {
	start  time.Time
	base   idx.Block
	period time.Duration
	now    func() time.Time
}

func newWallClock(base idx.Block, period time.Duration) *wallClock {
	return &wallClock{start: time.Now(), base: base, period: period, now: time.Now}
}

func (c *wallClock) BlockNumber() idx.Block {
	if c.period <= 0 {
		return c.base
	}
	elapsed := c.now().Sub(c.start)
	if elapsed < 0 {
		return c.base
	}
	return c.base + idx.Block(elapsed/c.period)
}
