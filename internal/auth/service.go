package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

// UserStore is the persistence the auth service needs. Create must report a
// taken username as *database.ConstraintViolation; GetByUsername returns
// sql.ErrNoRows when nothing matches.
type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

var (
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternal           = errors.New("internal error")
)

// DuplicateUserError is returned by SignUp when the username is taken.
// It matches ErrDuplicateUser with errors.Is.
type DuplicateUserError struct {
	Username string
}

func (e *DuplicateUserError) Error() string {
	return fmt.Sprintf("user with username %s already exists", e.Username)
}

func (e *DuplicateUserError) Is(target error) bool { return target == ErrDuplicateUser }

// SignInResult is the payload returned on successful sign-in.
type SignInResult struct {
	AccessToken string `json:"accessToken"`
}

// Service registers accounts and exchanges credentials for bearer tokens.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.SugaredLogger
	newID  func() string
	now    func() time.Time
}

func NewService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		newID:  utilities.NewSnowflakeID,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SignUp hashes the password with a fresh salt and stores a new user.
// A taken username yields *DuplicateUserError; every other failure is ErrInternal.
func (s *Service) SignUp(ctx context.Context, username, password string) error {
	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Errorw("hash password", "err", err)
		return ErrInternal
	}
	u := &entity.User{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: hash,
		PasswordAlgo: algo,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		var cv *database.ConstraintViolation
		if errors.As(err, &cv) {
			return &DuplicateUserError{Username: username}
		}
		s.logger.Errorw("create user", "username", username, "err", err)
		return ErrInternal
	}
	s.logger.Infow("user signed up", "user_id", u.ID, "username", username)
	return nil
}

// SignIn verifies credentials and issues an access token. Unknown username
// and wrong password both return ErrInvalidCredentials to avoid user enumeration.
func (s *Service) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Errorw("lookup user", "username", username, "err", err)
		return nil, ErrInternal
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Sign(Payload{Username: u.Username})
	if err != nil {
		s.logger.Errorw("sign token", "username", username, "err", err)
		return nil, ErrInternal
	}
	return &SignInResult{AccessToken: token}, nil
}
