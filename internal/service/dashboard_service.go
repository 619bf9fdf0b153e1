package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/internal/repository"
	"github.com/severusraj/gradverify-mono/pkg/metrics"
)

const (
	defaultDashboardCacheSize = 64
	defaultDashboardCacheTTL  = 30 * time.Second

	cacheKeyStats    = "stats"
	cacheKeyProgress = "department_progress"
)

// DashboardService 审核进度统计接口。结果按 TTL 缓存，审核写入不主动失效。
type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStatsResponse, error)
	DepartmentProgress(ctx context.Context) ([]dto.DepartmentProgressResponse, error)
	RecentSubmissions(ctx context.Context, limit int) ([]dto.RecentSubmissionResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	cache  *expirable.LRU[string, any]
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例；size/ttl 非正时使用默认值
func NewDashboardService(repo *repository.Repository, size int, ttl time.Duration, logger *zap.Logger) DashboardService {
	if size <= 0 {
		size = defaultDashboardCacheSize
	}
	if ttl <= 0 {
		ttl = defaultDashboardCacheTTL
	}
	return &dashboardService{
		repo:   repo,
		cache:  expirable.NewLRU[string, any](size, nil, ttl),
		logger: logger,
	}
}

// cached 命中缓存直接返回，否则调用 load 并写入缓存
func cached[T any](s *dashboardService, key string, load func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			metrics.DashboardCacheHitsTotal.Inc()
			return typed, nil
		}
	}
	metrics.DashboardCacheMissesTotal.Inc()

	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Add(key, v)
	return v, nil
}

func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	return cached(s, cacheKeyStats, func() (*dto.DashboardStatsResponse, error) {
		counts, err := s.repo.StudentProfile.CountByOverallStatus(ctx)
		if err != nil {
			s.logger.Error("统计汇总状态失败", zap.Error(err))
			return nil, err
		}
		resp := &dto.DashboardStatsResponse{
			Pending:  counts[model.StatusPending],
			Approved: counts[model.StatusApproved],
			Rejected: counts[model.StatusRejected],
		}
		resp.Total = resp.Pending + resp.Approved + resp.Rejected
		return resp, nil
	})
}

func (s *dashboardService) DepartmentProgress(ctx context.Context) ([]dto.DepartmentProgressResponse, error) {
	return cached(s, cacheKeyProgress, func() ([]dto.DepartmentProgressResponse, error) {
		rows, err := s.repo.StudentProfile.DepartmentProgress(ctx)
		if err != nil {
			s.logger.Error("统计学院进度失败", zap.Error(err))
			return nil, err
		}
		result := make([]dto.DepartmentProgressResponse, 0, len(rows))
		for _, r := range rows {
			result = append(result, dto.DepartmentProgressResponse{
				Department: r.Department,
				Total:      r.Total,
				Approved:   r.Approved,
				Pending:    r.Pending,
				Rejected:   r.Rejected,
				Percent:    percent(r.Approved, r.Total),
			})
		}
		return result, nil
	})
}

func (s *dashboardService) RecentSubmissions(ctx context.Context, limit int) ([]dto.RecentSubmissionResponse, error) {
	if limit <= 0 {
		limit = 5
	}
	return cached(s, fmt.Sprintf("recent:%d", limit), func() ([]dto.RecentSubmissionResponse, error) {
		profiles, err := s.repo.StudentProfile.ListRecent(ctx, limit)
		if err != nil {
			s.logger.Error("查询最近提交失败", zap.Error(err))
			return nil, err
		}
		result := make([]dto.RecentSubmissionResponse, 0, len(profiles))
		for i := range profiles {
			p := &profiles[i]
			item := dto.RecentSubmissionResponse{
				StudentProfileID: p.StudentProfileID,
				StudentNumber:    p.StudentNumber,
				Program:          p.Program,
				Department:       p.Department,
				OverallStatus:    string(p.OverallStatus.OrPending()),
				CreatedAt:        formatTime(p.CreatedAt),
			}
			if p.User != nil {
				item.Name = p.User.Name
			}
			result = append(result, item)
		}
		return result, nil
	})
}

func percent(part, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
