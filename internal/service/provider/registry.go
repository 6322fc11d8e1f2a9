package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"github.com/ecodeclub/ekit/syncx"
	"golang.org/x/sync/singleflight"
)

// Registry 供应商注册表。类型到构造函数的映射在创建之后只读；
// 初始化好的实例按 (类型, 路由) 缓存，路由配置变了就重新初始化并替换旧实例
type Registry struct {
	factories  map[domain.ProviderType]Factory
	decorators []Decorator

	instances syncx.Map[string, instance]
	group     singleflight.Group
}

type instance struct {
	digest   string
	provider Provider
}

func NewRegistry(factories map[domain.ProviderType]Factory, decorators ...Decorator) *Registry {
	fs := make(map[domain.ProviderType]Factory, len(factories))
	for typ, f := range factories {
		fs[typ] = f
	}
	return &Registry{
		factories:  fs,
		decorators: decorators,
	}
}

// Resolve 返回路由对应的已初始化实例，同一份配置并发调用只会初始化一次
func (r *Registry) Resolve(_ context.Context, routeID int64, typ domain.ProviderType, configuration string) (Provider, error) {
	factory, ok := r.factories[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownProvider, typ)
	}
	key := fmt.Sprintf("%s:%d", typ, routeID)
	digest := configDigest(configuration)
	if ins, ok := r.instances.Load(key); ok && ins.digest == digest {
		return ins.provider, nil
	}
	val, err, _ := r.group.Do(key+":"+digest, func() (any, error) {
		if ins, ok := r.instances.Load(key); ok && ins.digest == digest {
			return ins.provider, nil
		}
		p, err := r.initialize(factory, typ, configuration)
		if err != nil {
			return nil, err
		}
		r.instances.Store(key, instance{digest: digest, provider: p})
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(Provider), nil
}

// initialize 供应商 SDK 在解析配置时 panic 也当成初始化失败
func (r *Registry) initialize(factory Factory, typ domain.ProviderType, configuration string) (p Provider, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("供应商 %s 初始化异常: %v", typ, rec)
		}
	}()
	p = factory()
	if err = p.Initialize(configuration); err != nil {
		return nil, err
	}
	for _, d := range r.decorators {
		p = d(typ, p)
	}
	return p, nil
}

// Len 缓存的实例数
func (r *Registry) Len() int {
	n := 0
	r.instances.Range(func(_ string, _ instance) bool {
		n++
		return true
	})
	return n
}

// Types 已注册的供应商类型，按字典序
func (r *Registry) Types() []domain.ProviderType {
	res := make([]domain.ProviderType, 0, len(r.factories))
	for typ := range r.factories {
		res = append(res, typ)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func configDigest(configuration string) string {
	sum := sha256.Sum256([]byte(configuration))
	return hex.EncodeToString(sum[:])
}
