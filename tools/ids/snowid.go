package ids

import (
	"strconv"
	"sync"
	"time"
)

// Snowflake layout: 41 bits millisecond timestamp, 10 bits node, 12 bits
// sequence. Monotonic within a process as long as the clock does not step
// backwards; on a step we spin until it catches up.
type generator struct {
	mu       sync.Mutex
	epochMS  int64
	nodeID   int64 // 0~1023
	seq      int64 // 0~4095
	lastTSMS int64
}

var (
	defaultGen *generator
	once       sync.Once
)

func initDefault() {
	once.Do(func() {
		defaultGen = &generator{
			epochMS: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			nodeID:  1,
		}
	})
}

// Generate returns a new snowflake id.
func Generate() int64 {
	initDefault()
	return defaultGen.next()
}

func GenerateString() string {
	return strconv.FormatInt(Generate(), 10)
}

// SetNodeID sets the node part (0~1023); call once in main() before the
// first Generate.
func SetNodeID(id int64) {
	initDefault()
	defaultGen.mu.Lock()
	defer defaultGen.mu.Unlock()
	defaultGen.nodeID = id & 0x3FF
}

func (g *generator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := time.Now().UnixMilli()
	if ts < g.lastTSMS {
		// clock stepped back; wait it out
		for ts < g.lastTSMS {
			time.Sleep(time.Millisecond)
			ts = time.Now().UnixMilli()
		}
	}
	if ts == g.lastTSMS {
		g.seq = (g.seq + 1) & 0xFFF
		if g.seq == 0 {
			for ts <= g.lastTSMS {
				ts = time.Now().UnixMilli()
			}
		}
	} else {
		g.seq = 0
	}
	g.lastTSMS = ts

	return (ts-g.epochMS)<<22 | g.nodeID<<12 | g.seq
}
