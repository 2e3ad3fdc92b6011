package services

import (
	"context"
	"strings"

	"github.com/joshua-takyi/folio/internal/models"
)

// PublicService resolves a username to the visitor-safe portfolio page.
type PublicService struct {
	userRepo      models.UserRepo
	portfolioRepo models.PortfolioRepo
}

func NewPublicService(userRepo models.UserRepo, portfolioRepo models.PortfolioRepo) *PublicService {
	return &PublicService{userRepo: userRepo, portfolioRepo: portfolioRepo}
}

func (ps *PublicService) Resolve(ctx context.Context, username string) (*models.PublicPortfolio, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.NotFound("user not found")
	}
	user, err := ps.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	portfolio, err := ps.portfolioRepo.GetPortfolioByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.PublicPortfolio{
		Portfolio: *portfolio,
		User:      user.Public(),
	}, nil
}
