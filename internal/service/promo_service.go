package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"menu-advisor/internal/model"
	"menu-advisor/internal/promo"

	"github.com/rs/zerolog"
)

type promoService struct {
	guard  promo.Guard
	logger zerolog.Logger
}

// NewPromoService creates a promo code service backed by guard.
func NewPromoService(guard promo.Guard, logger zerolog.Logger) PromoService {
	return &promoService{
		guard:  guard,
		logger: logger.With().Str("service", "promo").Logger(),
	}
}

func (s *promoService) VerifyCode(ctx context.Context, req *model.PromoCodeRequest, clientAddress string) error {
	req.Code = strings.TrimSpace(req.Code)
	if err := validateStruct(req); err != nil {
		return err
	}

	usage := promo.Usage{
		Code:          req.Code,
		ClientAddress: clientAddress,
		RestaurantID:  req.RestaurantID.String(),
		Expiry:        req.DateFin,
	}

	ok, err := s.guard.CheckAndRecord(ctx, usage, *req.Max)
	if err != nil {
		if errors.Is(err, promo.ErrUnknownCode) {
			return model.ErrUnknownPromoCode
		}
		return fmt.Errorf("failed to check promo code usage: %w", err)
	}
	if !ok {
		s.logger.Info().
			Str("code", usage.Code).
			Str("restaurant_id", usage.RestaurantID).
			Msg("promo code quota exhausted")
		return model.ErrPromoUsageExceeded
	}

	return nil
}
