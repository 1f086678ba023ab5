package service

import (
	"context"
	"fmt"
	"time"

	"menu-advisor/internal/model"
	"menu-advisor/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type dashboardService struct {
	dashboardRepo  repository.DashboardRepository
	restaurantRepo repository.RestaurantRepository
	now            func() time.Time
	location       *time.Location
	logger         zerolog.Logger
}

// NewDashboardService creates a dashboard service. Periods are computed in loc.
func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	restaurantRepo repository.RestaurantRepository,
	loc *time.Location,
	logger zerolog.Logger,
) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{
		dashboardRepo:  dashboardRepo,
		restaurantRepo: restaurantRepo,
		now:            time.Now,
		location:       loc,
		logger:         logger.With().Str("service", "dashboard").Logger(),
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, principal *model.Principal) (*model.Dashboard, error) {
	var restaurants []uuid.UUID
	switch {
	case principal.IsAdmin():
	case principal.HasRole(model.RoleRestaurantAdmin):
		ids, err := s.restaurantRepo.ListIDsByAdmin(ctx, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load administered restaurants: %w", err)
		}
		restaurants = ids
	default:
		return nil, model.ErrForbidden
	}

	periods := dashboardPeriods(s.now().In(s.location))
	stats := make([]model.PeriodStats, len(periods))
	for i, p := range periods {
		st, err := s.dashboardRepo.PeriodStats(ctx, p[0], p[1], restaurants)
		if err != nil {
			s.logger.Error().Err(err).Time("from", p[0]).Msg("failed to compute dashboard period")
			return nil, fmt.Errorf("failed to compute dashboard: %w", err)
		}
		stats[i] = *st
	}

	return &model.Dashboard{
		Day:   stats[0],
		Week:  stats[1],
		Month: stats[2],
		Year:  stats[3],
	}, nil
}

// dashboardPeriods returns the [from, to) bounds of the day, ISO week, month
// and year containing now.
func dashboardPeriods(now time.Time) [4][2]time.Time {
	loc := now.Location()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	// ISO weeks start on Monday.
	offset := (int(day.Weekday()) + 6) % 7
	week := day.AddDate(0, 0, -offset)

	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)

	return [4][2]time.Time{
		{day, day.AddDate(0, 0, 1)},
		{week, week.AddDate(0, 0, 7)},
		{month, month.AddDate(0, 1, 0)},
		{year, year.AddDate(1, 0, 0)},
	}
}
