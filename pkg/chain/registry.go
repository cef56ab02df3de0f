package chain

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/logger"
)

// Registry 链标识到适配器的并发映射，启动时填充，之后以读为主
type Registry struct {
	adapters map[string]ChainAdapter
	mu       sync.RWMutex
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]ChainAdapter)}
}

// Default 返回进程级 Registry
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register 以 adapter.ChainID() 为键注册，已存在时覆盖
func (r *Registry) Register(adapter ChainAdapter) error {
	if adapter == nil || adapter.ChainID() == "" {
		return errno.Newf(errno.ErrInvalidInput, "adapter must have a chain id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := adapter.ChainID()
	if _, exists := r.adapters[id]; exists {
		logger.Info("chain adapter replaced", zap.String("chain", id))
	}
	r.adapters[id] = adapter
	return nil
}

// Get 未注册的链返回 ErrUnsupportedChain
func (r *Registry) Get(id string) (ChainAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[id]
	if !exists {
		return nil, errno.Newf(errno.ErrUnsupportedChain, "no adapter registered for chain %q", id)
	}
	return adapter, nil
}

func (r *Registry) IsSupported(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adapters[id]
	return exists
}

// Chains 返回已注册的链标识，按字典序
func (r *Registry) Chains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
