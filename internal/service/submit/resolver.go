package submit

import (
	"context"
	"fmt"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"gitee.com/flycash/msgpulse/internal/repository"
)

// RouteResolver 按消息类型选路由，取优先级最高的可用路由
type RouteResolver struct {
	routes repository.RouteRepository
}

func NewRouteResolver(routes repository.RouteRepository) *RouteResolver {
	return &RouteResolver{routes: routes}
}

func (r *RouteResolver) Resolve(ctx context.Context, messageType domain.MessageType) (domain.Route, error) {
	candidates, err := r.routes.ListActiveByType(ctx, messageType)
	if err != nil {
		return domain.Route{}, err
	}
	for _, c := range candidates {
		if c.Enabled {
			return c, nil
		}
	}
	return domain.Route{}, fmt.Errorf("%w: messageType = %s", errs.ErrRouteNotFound, messageType)
}
