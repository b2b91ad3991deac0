package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/adapter"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/infra/logging"
	"egas-delivery/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

const minPasswordLen = 6

// UserUseCase exposes account operations used by the API.
type UserUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Me(ctx context.Context, actor Actor) (*model.User, error)
	UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*model.User, error)
	List(ctx context.Context, actor Actor, offset, limit int) ([]*model.User, error)
	Stats(ctx context.Context, actor Actor) (map[model.Role]int, error)
	SetActive(ctx context.Context, actor Actor, id string, active bool) (*model.User, error)
	SetRole(ctx context.Context, actor Actor, id string, role model.Role) (*model.User, error)
}

type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	Address         model.Address
}

type ProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *model.Address
}

type LoginPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
	RateLimit    int
	RateWindow   time.Duration
}

type userUC struct {
	users   repository.UserRepository
	tm      repository.TransactionManager
	limiter adapter.RateLimiter // optional
	policy  LoginPolicy
	dev     bool
	now     func() time.Time

	log *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, limiter adapter.RateLimiter, policy LoginPolicy, dev bool, logger *zerolog.Logger) *userUC {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 5
	}
	if policy.LockDuration <= 0 {
		policy.LockDuration = 30 * time.Minute
	}
	return &userUC{
		users:   users,
		tm:      tm,
		limiter: limiter,
		policy:  policy,
		dev:     dev,
		now:     time.Now,
		log:     logger,
	}
}

func (u *userUC) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	if len(in.Password) < minPasswordLen || in.Password != in.ConfirmPassword {
		return nil, domain.ErrInvalidArgument
	}
	user, err := model.NewUser("", in.FirstName, in.LastName, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}
	user.Address = in.Address
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.users.FindByEmail(ctx, tx, user.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyExists
		}
		return u.users.Save(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("user_id", user.ID).Str("email", logging.RedactEmail(user.Email, u.dev)).Msg("user registered")
	return user, nil
}

// Login verifies credentials. Repeated failures lock the account for the
// configured duration.
func (u *userUC) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	log := logging.With(ctx, u.log)

	if u.limiter != nil && u.policy.RateLimit > 0 {
		ok, err := u.limiter.Allow(ctx, "rate_limit:login:"+email, u.policy.RateLimit, u.policy.RateWindow)
		if err != nil {
			log.Warn().Err(err).Msg("login rate limiter unavailable")
		} else if !ok {
			metrics.IncLogin("rate_limited")
			return nil, domain.ErrRateLimited
		}
	}

	var user *model.User
	var loginErr error
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByEmail(ctx, tx, email)
		if errors.Is(err, domain.ErrNotFound) {
			loginErr = domain.ErrInvalidCredentials
			return nil
		}
		if err != nil {
			return err
		}
		now := u.now()
		if usr.IsLocked(now) {
			loginErr = domain.ErrAccountLocked
			return nil
		}
		if !usr.IsActive {
			loginErr = domain.ErrAccountInactive
			return nil
		}
		if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)) != nil {
			usr.RegisterFailedLogin(now, u.policy.MaxAttempts, u.policy.LockDuration)
			loginErr = domain.ErrInvalidCredentials
			// the failed attempt must be persisted, so commit
			return u.users.Save(ctx, tx, usr)
		}
		if usr.LoginAttempts > 0 || usr.LockUntil != nil {
			usr.ResetLoginAttempts()
			if err := u.users.Save(ctx, tx, usr); err != nil {
				return err
			}
		}
		user = usr
		return nil
	})
	if err != nil {
		return nil, err
	}
	if loginErr != nil {
		if errors.Is(loginErr, domain.ErrAccountLocked) {
			metrics.IncLogin("locked")
		} else {
			metrics.IncLogin("invalid")
		}
		log.Info().Str("email", logging.RedactEmail(email, u.dev)).Err(loginErr).Msg("login rejected")
		return nil, loginErr
	}
	metrics.IncLogin("ok")
	return user, nil
}

func (u *userUC) Me(ctx context.Context, actor Actor) (*model.User, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return u.users.FindByID(ctx, repository.NoTX, actor.UserID)
}

func (u *userUC) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*model.User, error) {
	user, err := u.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil && strings.TrimSpace(*in.FirstName) != "" {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil && strings.TrimSpace(*in.LastName) != "" {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	user.UpdatedAt = u.now().UTC()
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUC) List(ctx context.Context, actor Actor, offset, limit int) ([]*model.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	offset, limit = Page(offset, limit)
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) Stats(ctx context.Context, actor Actor) (map[model.Role]int, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return u.users.CountByRole(ctx, repository.NoTX)
}

func (u *userUC) SetActive(ctx context.Context, actor Actor, id string, active bool) (*model.User, error) {
	return u.adminUpdate(ctx, actor, id, func(usr *model.User) error {
		usr.IsActive = active
		return nil
	})
}

func (u *userUC) SetRole(ctx context.Context, actor Actor, id string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return u.adminUpdate(ctx, actor, id, func(usr *model.User) error {
		usr.Role = role
		return nil
	})
}

func (u *userUC) adminUpdate(ctx context.Context, actor Actor, id string, mutate func(*model.User) error) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if actor.UserID == id {
		// admins cannot demote or deactivate themselves
		return nil, domain.ErrForbidden
	}
	var out *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(usr); err != nil {
			return err
		}
		usr.UpdatedAt = u.now().UTC()
		out = usr
		return u.users.Save(ctx, tx, usr)
	})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("target_user", id).Str("role", string(out.Role)).Bool("active", out.IsActive).Msg("user updated by admin")
	return out, nil
}
