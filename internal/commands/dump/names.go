package dump

import (
	"fmt"

	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultNameCacheSize = 8192

// NameCache memoizes resolved type index names. It is shared by the
// renderers running concurrently on one model.
type NameCache struct {
	m     *il2cpp.Model
	cache *lru.Cache[int32, string]
}

func NewNameCache(m *il2cpp.Model, size int) (*NameCache, error) {
	if size <= 0 {
		size = defaultNameCacheSize
	}
	lcache, err := lru.New[int32, string](size)
	if err != nil {
		return nil, err
	}
	return &NameCache{
		m:     m,
		cache: lcache,
	}, nil
}

// Name returns the C# name of the descriptor at a type index.
func (n *NameCache) Name(index int32) (string, error) {
	if name, ok := n.cache.Get(index); ok {
		return name, nil
	}
	name, err := n.m.TypeIndexName(index)
	if err != nil {
		return "", fmt.Errorf("failed to resolve type %d: %w", index, err)
	}
	n.cache.Add(index, name)
	return name, nil
}

// Len is the number of cached names.
func (n *NameCache) Len() int {
	return n.cache.Len()
}
