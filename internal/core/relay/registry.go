package relay

import (
	"sync"

	"github.com/google/uuid"
)

// Registry 中继登记表
//
// 代理段只保存中继的 key，释放时通过 Registry 查找中继，
// 代理段从不持有中继本身。
type Registry struct {
	mu     sync.RWMutex
	relays map[uuid.UUID]*Relay
}

// NewRegistry 创建登记表
func NewRegistry() *Registry {
	return &Registry{
		relays: make(map[uuid.UUID]*Relay),
	}
}

// register 登记中继并返回 key
func (g *Registry) register(r *Relay) uuid.UUID {
	key := uuid.New()
	g.mu.Lock()
	g.relays[key] = r
	g.mu.Unlock()
	return key
}

// unregister 移除登记
func (g *Registry) unregister(key uuid.UUID) {
	g.mu.Lock()
	delete(g.relays, key)
	g.mu.Unlock()
}

// Lookup 按 key 查找中继
func (g *Registry) Lookup(key uuid.UUID) (*Relay, bool) {
	g.mu.RLock()
	r, ok := g.relays[key]
	g.mu.RUnlock()
	return r, ok
}

// Len 返回登记的中继数
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relays)
}

// Relays 返回所有登记的中继
func (g *Registry) Relays() []*Relay {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Relay, 0, len(g.relays))
	for _, r := range g.relays {
		out = append(out, r)
	}
	return out
}
