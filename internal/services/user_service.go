package services

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joshua-takyi/folio/internal/helpers"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// NotificationRecorder counts emails that could not be delivered.
type NotificationRecorder interface {
	NotificationFailed()
}

type UserServiceOptions struct {
	AppURL       string
	EmailTimeout time.Duration
	Recorder     NotificationRecorder
	Logger       *slog.Logger
}

type UserService struct {
	userRepo      models.UserRepo
	portfolioRepo models.PortfolioRepo
	tokens        *helpers.TokenManager
	notifier      notify.Notifier
	opts          UserServiceOptions
	logger        *slog.Logger

	now    func() time.Time
	emails sync.WaitGroup

	// pending holds the last queued send per recipient so that a newer code
	// never arrives before an older one.
	pendingMu sync.Mutex
	pending   map[string]chan struct{}
}

func NewUserService(userRepo models.UserRepo, portfolioRepo models.PortfolioRepo, tokens *helpers.TokenManager, notifier notify.Notifier, opts UserServiceOptions) *UserService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EmailTimeout <= 0 {
		opts.EmailTimeout = 10 * time.Second
	}
	return &UserService{
		userRepo:      userRepo,
		portfolioRepo: portfolioRepo,
		tokens:        tokens,
		notifier:      notifier,
		opts:          opts,
		logger:        opts.Logger,
		now:           func() time.Time { return time.Now().UTC() },
		pending:       make(map[string]chan struct{}),
	}
}

// Wait blocks until every queued email has finished or timed out.
func (us *UserService) Wait() {
	us.emails.Wait()
}

// sendAsync delivers an email off the request path. Sends to one recipient
// go out in the order they were queued. Each send is bounded by EmailTimeout
// and its failure never reaches the caller.
func (us *UserService) sendAsync(to, subject, body string) {
	if us.notifier == nil {
		return
	}
	done := make(chan struct{})
	us.pendingMu.Lock()
	prev := us.pending[to]
	us.pending[to] = done
	us.pendingMu.Unlock()

	us.emails.Add(1)
	go func() {
		defer us.emails.Done()
		defer func() {
			close(done)
			us.pendingMu.Lock()
			if us.pending[to] == done {
				delete(us.pending, to)
			}
			us.pendingMu.Unlock()
		}()
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(context.Background(), us.opts.EmailTimeout)
		defer cancel()
		if err := us.notifier.Send(ctx, to, subject, body); err != nil {
			us.logger.Error("failed to send email",
				slog.String("subject", subject),
				slog.Any("error", err),
			)
			if us.opts.Recorder != nil {
				us.opts.Recorder.NotificationFailed()
			}
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ensureFree returns Conflict when lookup finds an account other than self.
func ensureFree(ctx context.Context, lookup func(context.Context, string) (*models.User, error), value string, self primitive.ObjectID, msg string) error {
	existing, err := lookup(ctx, value)
	if err != nil {
		if models.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return models.Conflict(msg)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.Upstream("failed to hash password", err)
	}
	return string(hashed), nil
}

// Register creates an unverified account and its default portfolio. When the
// portfolio cannot be stored the account is removed again.
func (us *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := helpers.ValidatePassword(req.Password); err != nil {
		return nil, models.ValidationFailed(err.Error())
	}
	if err := ensureFree(ctx, us.userRepo.GetUserByEmail, req.Email, primitive.NilObjectID, "email already in use"); err != nil {
		return nil, err
	}
	if err := ensureFree(ctx, us.userRepo.GetUserByUsername, req.Username, primitive.NilObjectID, "username already taken"); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	code, err := helpers.GenerateVerificationCode()
	if err != nil {
		return nil, models.Upstream("failed to generate verification code", err)
	}

	now := us.now()
	expires := now.Add(helpers.VerificationCodeTTL)
	user := &models.User{
		Name:                    req.Name,
		Email:                   req.Email,
		Username:                req.Username,
		Password:                hashed,
		Role:                    models.RoleUser,
		VerificationCode:        code,
		VerificationCodeExpires: &expires,
		VerificationCodeSentAt:  &now,
		CreatedAt:               now,
	}
	created, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	if _, err := us.portfolioRepo.CreatePortfolio(ctx, models.NewDefaultPortfolio(created.ID, now)); err != nil {
		if delErr := us.userRepo.DeleteUser(context.WithoutCancel(ctx), created.ID); delErr != nil {
			us.logger.Error("failed to remove account after portfolio error",
				slog.String("user_id", created.ID.Hex()),
				slog.Any("error", delErr),
			)
		}
		if models.KindOf(err) == models.KindUpstreamFailure {
			return nil, models.Upstream("failed to create portfolio", err)
		}
		return nil, err
	}

	subject, body := notify.VerificationEmail(created.Name, code)
	us.sendAsync(created.Email, subject, body)

	us.logger.Info("account registered",
		slog.String("user_id", created.ID.Hex()),
		slog.String("username", created.Username),
	)
	return created, nil
}

func (us *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := us.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.Unauthenticated("invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, models.Unauthenticated("invalid email or password")
	}

	token, err := us.tokens.Issue(user.ID.Hex(), user.Role, user.Email, user.Username)
	if err != nil {
		return nil, models.Upstream("failed to issue token", err)
	}
	return &models.LoginResult{Token: token, User: user}, nil
}

// VerifyCode reports whether the account was already verified before this
// call.
func (us *UserService) VerifyCode(ctx context.Context, req *models.VerifyCodeRequest) (bool, error) {
	req.Email = normalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := models.ValidateStruct(req); err != nil {
		return false, err
	}

	user, err := us.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return false, err
	}
	if user.Verified {
		return true, nil
	}
	if user.VerificationCode == "" || subtle.ConstantTimeCompare([]byte(user.VerificationCode), []byte(req.Code)) != 1 {
		return false, models.ValidationFailed("invalid verification code")
	}
	if user.VerificationCodeExpires == nil || us.now().After(*user.VerificationCodeExpires) {
		return false, models.ValidationFailed("verification code has expired")
	}

	patch := models.NewFieldPatch()
	patch.Set["verified"] = true
	patch.Unset = []string{"verificationCode", "verificationCodeExpires", "verificationCodeSentAt"}
	if _, err := us.userRepo.UpdateUser(ctx, user.ID, patch); err != nil {
		return false, err
	}
	return false, nil
}

// ResendCode issues a fresh verification code. Only one code is sent per
// account per VerificationResendWait.
func (us *UserService) ResendCode(ctx context.Context, req *models.EmailRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := models.ValidateStruct(req); err != nil {
		return err
	}

	user, err := us.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.Verified {
		return models.ValidationFailed("account is already verified")
	}

	now := us.now()
	if user.VerificationCodeSentAt != nil {
		if wait := user.VerificationCodeSentAt.Add(helpers.VerificationResendWait).Sub(now); wait > 0 {
			return models.RateLimited("please wait before requesting another code", wait)
		}
	}

	code, err := helpers.GenerateVerificationCode()
	if err != nil {
		return models.Upstream("failed to generate verification code", err)
	}
	patch := models.NewFieldPatch()
	patch.Set["verificationCode"] = code
	patch.Set["verificationCodeExpires"] = now.Add(helpers.VerificationCodeTTL)
	patch.Set["verificationCodeSentAt"] = now
	if _, err := us.userRepo.UpdateUser(ctx, user.ID, patch); err != nil {
		return err
	}

	subject, body := notify.VerificationEmail(user.Name, code)
	us.sendAsync(user.Email, subject, body)
	return nil
}

// ForgotPassword never reveals whether the address belongs to an account.
func (us *UserService) ForgotPassword(ctx context.Context, req *models.EmailRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := models.ValidateStruct(req); err != nil {
		return err
	}

	user, err := us.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if models.IsNotFound(err) {
			return nil
		}
		return err
	}

	token, err := helpers.GenerateResetToken()
	if err != nil {
		return models.Upstream("failed to generate reset token", err)
	}
	patch := models.NewFieldPatch()
	patch.Set["resetPasswordToken"] = token
	patch.Set["resetPasswordExpires"] = us.now().Add(helpers.ResetTokenTTL)
	if _, err := us.userRepo.UpdateUser(ctx, user.ID, patch); err != nil {
		return err
	}

	subject, body := notify.PasswordResetEmail(us.opts.AppURL, user.Email, token)
	us.sendAsync(user.Email, subject, body)
	return nil
}

func (us *UserService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := models.ValidateStruct(req); err != nil {
		return err
	}
	if err := helpers.ValidatePassword(req.Password); err != nil {
		return models.ValidationFailed(err.Error())
	}

	invalid := models.ValidationFailed("invalid or expired reset token")
	user, err := us.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if models.IsNotFound(err) {
			return invalid
		}
		return err
	}
	if user.ResetPasswordToken == "" || subtle.ConstantTimeCompare([]byte(user.ResetPasswordToken), []byte(req.Token)) != 1 {
		return invalid
	}
	if user.ResetPasswordExpires == nil || us.now().After(*user.ResetPasswordExpires) {
		return invalid
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	patch := models.NewFieldPatch()
	patch.Set["password"] = hashed
	patch.Unset = []string{"resetPasswordToken", "resetPasswordExpires"}
	_, err = us.userRepo.UpdateUser(ctx, user.ID, patch)
	return err
}

func (us *UserService) GetMe(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return us.userRepo.GetUserByID(ctx, userID)
}

func (us *UserService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, update *models.SettingsUpdate) (*models.User, error) {
	if update == nil {
		return nil, models.ValidationFailed("no fields to update")
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		update.Email = &email
	}
	if err := models.ValidateStruct(update); err != nil {
		return nil, err
	}

	patch := models.NewFieldPatch()
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, models.ValidationFailed("name cannot be empty")
		}
		patch.Set["name"] = name
	}
	if update.Email != nil {
		if err := ensureFree(ctx, us.userRepo.GetUserByEmail, *update.Email, userID, "email already in use"); err != nil {
			return nil, err
		}
		patch.Set["email"] = *update.Email
	}
	if update.Image != nil {
		patch.Set["image"] = *update.Image
	}
	if patch.IsEmpty() {
		return nil, models.ValidationFailed("no fields to update")
	}
	return us.userRepo.UpdateUser(ctx, userID, patch)
}

// Authenticate resolves a session token to the caller identity.
func (us *UserService) Authenticate(raw string) (*helpers.Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, models.Unauthenticated("authentication required")
	}
	claims, err := us.tokens.ValidateToken(raw)
	if err != nil {
		return nil, models.Unauthenticated("invalid or expired token")
	}
	identity, err := helpers.IdentityFromClaims(claims)
	if err != nil {
		return nil, models.Unauthenticated("invalid token subject")
	}
	return identity, nil
}

func (us *UserService) TokenTTL() time.Duration {
	return us.tokens.TTL()
}
