package pool

import (
	"math/rand/v2"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Backoff bounds for identities that keep failing
const (
	BaseCooldown = 30 * time.Second
	MaxCooldown  = 10 * time.Minute
)

// Identity is one egress route a job may use
type Identity struct {
	Name     string `yaml:"name"`
	ProxyURL string `yaml:"url"`
}

// Direct reports whether the identity goes out without a proxy
func (i Identity) Direct() bool {
	return i.ProxyURL == ""
}

// String returns a log-safe label with credentials removed
func (i Identity) String() string {
	if i.Direct() {
		return i.Name + " (direct)"
	}
	u, err := url.Parse(i.ProxyURL)
	if err != nil {
		return i.Name
	}
	return i.Name + " (" + u.Redacted() + ")"
}

type health struct {
	failures  int
	coolUntil time.Time
}

// Pool holds the configured identities and their in-memory health.
// Health only affects ordering; no identity is ever dropped.
type Pool struct {
	identities []Identity

	mu     sync.Mutex
	health map[string]*health
	now    func() time.Time
}

// New creates a pool; an empty list yields a single direct identity
func New(identities []Identity) *Pool {
	if len(identities) == 0 {
		identities = []Identity{{Name: "direct"}}
	}
	ids := make([]Identity, len(identities))
	copy(ids, identities)
	return &Pool{
		identities: ids,
		health:     make(map[string]*health, len(ids)),
		now:        time.Now,
	}
}

// Count returns the number of configured identities
func (p *Pool) Count() int {
	return len(p.identities)
}

// Snapshot returns every identity in a fresh random order.
// Identities still cooling down after failures are moved to the back.
func (p *Pool) Snapshot() []Identity {
	out := make([]Identity, len(p.identities))
	copy(out, p.identities)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	p.mu.Lock()
	now := p.now()
	cooling := make(map[string]bool, len(p.health))
	for name, h := range p.health {
		if now.Before(h.coolUntil) {
			cooling[name] = true
		}
	}
	p.mu.Unlock()

	if len(cooling) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return !cooling[out[i].Name] && cooling[out[j].Name]
		})
	}
	return out
}

// ReportFailure records a failed attempt and extends the cooldown
func (p *Pool) ReportFailure(id Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.health[id.Name]
	if h == nil {
		h = &health{}
		p.health[id.Name] = h
	}
	h.failures++
	h.coolUntil = p.now().Add(cooldown(h.failures))
}

// ReportSuccess clears the failure history of an identity
func (p *Pool) ReportSuccess(id Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.health, id.Name)
}

// Failures returns the consecutive failure count, for diagnostics
func (p *Pool) Failures(id Identity) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h := p.health[id.Name]; h != nil {
		return h.failures
	}
	return 0
}

func cooldown(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	d := BaseCooldown
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= MaxCooldown {
			return MaxCooldown
		}
	}
	return d
}
