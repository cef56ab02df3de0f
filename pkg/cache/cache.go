// Package cache 缓存已派生的公开地址，避免重复的 HD 派生。只存公开数据，不存任何密钥。
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"wallet-sdk/pkg/address"
)

// AddressCache 以 (链标识, 派生路径) 为键
type AddressCache struct {
	c *gocache.Cache
}

// NewAddressCache ttl 为 0 时条目不过期
func NewAddressCache(ttl, cleanupInterval time.Duration) *AddressCache {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	return &AddressCache{c: gocache.New(ttl, cleanupInterval)}
}

func key(chainID, path string) string {
	return chainID + "|" + path
}

func (a *AddressCache) Get(chainID, path string) (address.Address, bool) {
	v, found := a.c.Get(key(chainID, path))
	if !found {
		return address.Address{}, false
	}
	addr, ok := v.(address.Address)
	return addr, ok
}

func (a *AddressCache) Set(chainID, path string, addr address.Address) {
	a.c.SetDefault(key(chainID, path), addr)
}

func (a *AddressCache) Len() int { return a.c.ItemCount() }

// Flush 清空全部条目
func (a *AddressCache) Flush() { a.c.Flush() }
