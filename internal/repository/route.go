package repository

import (
	"context"
	"strconv"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/repository/dao"
	"github.com/patrickmn/go-cache"
)

// RouteRepository worker 每条消息都要读一次路由，按 ID 的查询走本地缓存
type RouteRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Route, error)
	ListActiveByType(ctx context.Context, messageType domain.MessageType) ([]domain.Route, error)
}

type routeRepository struct {
	dao   dao.RouteDAO
	cache *cache.Cache
}

func NewRouteRepository(d dao.RouteDAO, ttl time.Duration) RouteRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &routeRepository{
		dao:   d,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *routeRepository) GetByID(ctx context.Context, id int64) (domain.Route, error) {
	key := strconv.FormatInt(id, 10)
	if v, ok := r.cache.Get(key); ok {
		return v.(domain.Route), nil
	}
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Route{}, err
	}
	route := toRouteDomain(entity)
	r.cache.Set(key, route, cache.DefaultExpiration)
	return route, nil
}

func (r *routeRepository) ListActiveByType(ctx context.Context, messageType domain.MessageType) ([]domain.Route, error) {
	entities, err := r.dao.ListActiveByType(ctx, string(messageType))
	if err != nil {
		return nil, err
	}
	res := make([]domain.Route, 0, len(entities))
	for _, e := range entities {
		res = append(res, toRouteDomain(e))
	}
	return res, nil
}

func toRouteDomain(e dao.Route) domain.Route {
	return domain.Route{
		ID:            e.ID,
		Name:          e.Name,
		MessageType:   domain.MessageType(e.MessageType),
		ProviderType:  domain.ProviderType(e.ProviderType),
		Configuration: e.Configuration,
		Priority:      e.Priority,
		Enabled:       e.Enabled,
	}
}
