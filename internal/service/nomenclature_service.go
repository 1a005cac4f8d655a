package service

import (
	"context"

	"github.com/vitrina-shop/internal/cache"
	"github.com/vitrina-shop/internal/carrier/econt"
	"github.com/vitrina-shop/internal/logger"
)

// NomenclatureSource 承运商城市/网点目录（*econt.Client 实现）
type NomenclatureSource interface {
	GetCities(ctx context.Context, search string) []econt.City
	GetOffices(ctx context.Context, cityID int) []econt.Office
}

var _ NomenclatureSource = (*econt.Client)(nil)

// NomenclatureService 前台网点选择器使用的目录查询，结果缓存在 Redis
type NomenclatureService struct {
	source  NomenclatureSource
	enabled bool
}

// NewNomenclatureService 创建目录服务
func NewNomenclatureService(source NomenclatureSource, carrierEnabled bool) *NomenclatureService {
	return &NomenclatureService{source: source, enabled: carrierEnabled}
}

// Cities 按名称搜索城市
func (s *NomenclatureService) Cities(ctx context.Context, search string) []econt.City {
	if s == nil || !s.enabled || s.source == nil {
		return []econt.City{}
	}
	key := cache.CitiesKey(search)
	var cached []econt.City
	if hit, err := cache.GetJSON(ctx, key, &cached); err != nil {
		logger.Warnw("nomenclature_cache_read_failed", "key", key, "error", err)
	} else if hit {
		return cached
	}
	cities := s.source.GetCities(ctx, search)
	// 失败时返回空列表，不写缓存以便下次重新请求
	if len(cities) > 0 {
		if err := cache.SetJSON(ctx, key, cities, cache.NomenclatureTTL); err != nil {
			logger.Warnw("nomenclature_cache_write_failed", "key", key, "error", err)
		}
	}
	return cities
}

// Offices 城市内的网点与快递柜
func (s *NomenclatureService) Offices(ctx context.Context, cityID int) []econt.Office {
	if s == nil || !s.enabled || s.source == nil || cityID <= 0 {
		return []econt.Office{}
	}
	key := cache.OfficesKey(cityID)
	var cached []econt.Office
	if hit, err := cache.GetJSON(ctx, key, &cached); err != nil {
		logger.Warnw("nomenclature_cache_read_failed", "key", key, "error", err)
	} else if hit {
		return cached
	}
	offices := s.source.GetOffices(ctx, cityID)
	if len(offices) > 0 {
		if err := cache.SetJSON(ctx, key, offices, cache.NomenclatureTTL); err != nil {
			logger.Warnw("nomenclature_cache_write_failed", "key", key, "error", err)
		}
	}
	return offices
}
