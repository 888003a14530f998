package relay

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// vetoCache 缓存允许交接的句柄
//
// 允许过的句柄不再询问回调。被否决的句柄每次重新询问，
// 回调可以随打开的描述符数量改变决定。
type vetoCache struct {
	fn    interfaces.FileVetoFunc
	cache *lru.Cache[*os.File, struct{}]
}

func newVetoCache(size int) (*vetoCache, error) {
	c, err := lru.New[*os.File, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &vetoCache{cache: c}, nil
}

// set 替换回调并清空缓存
func (v *vetoCache) set(fn interfaces.FileVetoFunc) {
	v.fn = fn
	v.cache.Purge()
}

// allow 返回是否允许交接该句柄
func (v *vetoCache) allow(r interfaces.Relay, f *os.File) bool {
	if v.fn == nil {
		return true
	}
	if v.cache.Contains(f) {
		return true
	}
	if !v.fn(r, f) {
		return false
	}
	v.cache.Add(f, struct{}{})
	return true
}
