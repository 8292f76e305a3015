package doctree

import (
	"math/rand/v2"
	"sync"
	"time"
)

const pushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// KeyGenerator produces 20 character keys that sort in creation order: 8 characters
// of millisecond timestamp followed by 12 random characters. Keys generated within
// the same millisecond increment the random part.
type KeyGenerator struct {
	mu       sync.Mutex
	now      func() time.Time
	rnd      *rand.Rand
	lastTime int64
	lastRand [12]int
}

func NewKeyGenerator(now func() time.Time, rnd *rand.Rand) *KeyGenerator {
	if now == nil {
		now = time.Now
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	return &KeyGenerator{now: now, rnd: rnd}
}

func (g *KeyGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms == g.lastTime {
		i := len(g.lastRand) - 1
		for ; i >= 0 && g.lastRand[i] == len(pushChars)-1; i-- {
			g.lastRand[i] = 0
		}
		if i >= 0 {
			g.lastRand[i]++
		}
	} else {
		for i := range g.lastRand {
			g.lastRand[i] = g.rnd.IntN(len(pushChars))
		}
	}
	g.lastTime = ms

	var out [20]byte
	for i := 7; i >= 0; i-- {
		out[i] = pushChars[ms%int64(len(pushChars))]
		ms /= int64(len(pushChars))
	}
	for i, r := range g.lastRand {
		out[8+i] = pushChars[r]
	}
	return string(out[:])
}
