package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/folio/internal/config"
	"github.com/joshua-takyi/folio/internal/helpers"
	"github.com/joshua-takyi/folio/internal/metrics"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/notify"
	"github.com/joshua-takyi/folio/internal/ratelimit"
	"github.com/joshua-takyi/folio/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

const authRateWindow = time.Minute

// Clients are the live connections opened by main.
type Clients struct {
	MongoDB    *mongo.Client
	Cloudinary *cloudinary.Cloudinary
	Supabase   *supabase.Client
	Redis      *redis.Client
}

// Dependencies are the collaborators the services are built from. Tests
// fill them with in-memory fakes.
type Dependencies struct {
	Users      models.UserRepo
	Portfolios models.PortfolioRepo
	Uploader   services.Uploader
	Notifier   notify.Notifier
	Tokens     *helpers.TokenManager
	Limiter    *ratelimit.Limiter
	Metrics    *metrics.Metrics
}

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter
	Tokens  *helpers.TokenManager

	UserService      *services.UserService
	PortfolioService *services.PortfolioService
	AdminService     *services.AdminService
	PublicService    *services.PublicService
	UploadService    *services.UploadService
}

// NewContainer wires the services from already built dependencies.
func NewContainer(cfg *config.Config, logger *slog.Logger, deps Dependencies) *Container {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewDefault()
	}
	if deps.Tokens == nil {
		deps.Tokens = helpers.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	}

	userService := services.NewUserService(deps.Users, deps.Portfolios, deps.Tokens, deps.Notifier, services.UserServiceOptions{
		AppURL:       cfg.AppURL,
		EmailTimeout: cfg.EmailTimeout,
		Recorder:     deps.Metrics,
		Logger:       logger,
	})

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Metrics:          deps.Metrics,
		Limiter:          deps.Limiter,
		Tokens:           deps.Tokens,
		UserService:      userService,
		PortfolioService: services.NewPortfolioService(deps.Portfolios, deps.Metrics, logger),
		AdminService:     services.NewAdminService(deps.Users, logger),
		PublicService:    services.NewPublicService(deps.Users, deps.Portfolios),
		UploadService:    services.NewUploadService(deps.Uploader, logger),
	}
}

// FromClients builds the production container on top of live connections.
func FromClients(ctx context.Context, cfg *config.Config, logger *slog.Logger, clients Clients) (*Container, error) {
	mongoRepo := models.MongodbNewRepo(clients.MongoDB, cfg.MongoDBDatabase)
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	tokens := helpers.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if cfg.JWKSURL != "" {
		if err := tokens.UseJWKS(ctx, cfg.JWKSURL); err != nil {
			return nil, fmt.Errorf("load JWKS: %w", err)
		}
	}

	var uploader services.Uploader
	switch cfg.UploadProvider {
	case config.UploadProviderSupabase:
		uploader = services.NewSupabaseUploader(models.SupabaseNewRepo(clients.Supabase, cfg.SupabaseURL, cfg.SupabaseBucket))
	default:
		uploader = services.NewCloudinaryUploader(clients.Cloudinary)
	}

	var limiter *ratelimit.Limiter
	if clients.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(clients.Redis, logger, "folio:ratelimit", cfg.AuthRateLimit, authRateWindow)
	}

	notifier := notify.NewEmailNotifier(notify.EmailConfig{
		SMTPHost:  cfg.SMTPHost,
		SMTPPort:  cfg.SMTPPort,
		SMTPUser:  cfg.SMTPUser,
		SMTPPass:  cfg.SMTPPass,
		FromEmail: cfg.SMTPFrom,
	}, logger)

	return NewContainer(cfg, logger, Dependencies{
		Users:      mongoRepo,
		Portfolios: mongoRepo,
		Uploader:   uploader,
		Notifier:   notifier,
		Tokens:     tokens,
		Limiter:    limiter,
		Metrics:    metrics.NewDefault(),
	}), nil
}

// Close waits for queued emails and stops background token key refreshes.
func (c *Container) Close() {
	c.UserService.Wait()
	c.Tokens.Close()
}
