package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storagify/file-api/internal/apperr"
	"storagify/file-api/internal/model"
	"storagify/file-api/pkg/security"
	"storagify/file-api/pkg/util"
	"storagify/file-api/pkg/validators"

	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const userCacheTTL = 5 * time.Minute

// Session is what register and login return
type Session struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

type AuthService struct {
	db       *gorm.DB
	hasher   *security.Hasher
	tokens   *security.TokenIssuer
	notifier *Notifier
	users    *ttlcache.Cache
}

func NewAuthService(db *gorm.DB, hasher *security.Hasher, tokens *security.TokenIssuer, n *Notifier) *AuthService {
	users := ttlcache.NewCache()
	users.SetTTL(userCacheTTL)
	users.SetCacheSizeLimit(10_000)

	return &AuthService{
		db:       db,
		hasher:   hasher,
		tokens:   tokens,
		notifier: n,
		users:    users,
	}
}

func (s *AuthService) Close() error {
	return s.users.Close()
}

func (s *AuthService) Register(username, email, password string) (*Session, error) {
	if err := validators.UsernameValidator(username); err != nil {
		return nil, apperr.Wrap(apperr.ValidationError, capitalize(err), err)
	}

	if err := validators.EmailValidator(email); err != nil {
		return nil, apperr.Wrap(apperr.ValidationError, capitalize(err), err)
	}

	if err := validators.PasswordValidator(password); err != nil {
		return nil, apperr.Wrap(apperr.ValidationError, capitalize(err), err)
	}

	var existing model.User
	err := s.db.
		Select("username", "email").
		Where("username = ? OR email = ?", username, email).
		Take(&existing).
		Error
	if err == nil {
		if existing.Email == email {
			return nil, apperr.New(apperr.ConflictError, "This email is already registered")
		}

		return nil, apperr.New(apperr.ConflictError, "This username is already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal(fmt.Errorf("failed to check if user exists, %w", err))
	}

	hash, err := s.hasher.GenerateFromPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	userID, err := util.NewID()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to generate user ID, %w", err))
	}

	user := &model.User{
		ID:       userID,
		Username: username,
		Email:    email,
		Password: hash,
	}

	if err := s.db.Create(user).Error; err != nil {
		// Lost a race with another registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Wrap(apperr.ConflictError, "Username or email already registered", err)
		}

		return nil, apperr.Internal(fmt.Errorf("failed to create user, %w", err))
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.notifier.Welcome(user)
	zap.L().Info("User registered", zap.String("userID", user.ID))

	return &Session{Token: token, User: user.Public()}, nil
}

func (s *AuthService) Login(email, password string) (*Session, error) {
	if email == "" {
		return nil, apperr.New(apperr.ValidationError, "Email field can't be empty")
	}

	if password == "" {
		return nil, apperr.New(apperr.ValidationError, "Password field can't be empty")
	}

	var user model.User
	err := s.db.
		Where("email = ?", email).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFoundError, "User not found")
		}

		return nil, apperr.Internal(fmt.Errorf("failed to find user, %w", err))
	}

	ok, err := s.hasher.VerifyPasswd(password, user.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if !ok {
		return nil, apperr.New(apperr.AuthError, "Invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Session{Token: token, User: user.Public()}, nil
}

func (s *AuthService) Profile(userID string) (*model.PublicUser, error) {
	var user model.User
	err := s.db.
		Where("id = ?", userID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFoundError, "User not found")
		}

		return nil, apperr.Internal(fmt.Errorf("failed to find user, %w", err))
	}

	p := user.Public()
	return &p, nil
}

// VerifyToken returns the user ID the token was issued for
func (s *AuthService) VerifyToken(token string) (string, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidToken, "Authorization token invalid or expired", err)
	}

	return userID, nil
}

// ResolveUser loads the user a verified token belongs to. Users are never
// updated or deleted so hits are cached for a few minutes.
func (s *AuthService) ResolveUser(userID string) (*model.User, error) {
	if v, err := s.users.Get(userID); err == nil {
		return v.(*model.User), nil
	}

	var user model.User
	err := s.db.
		Where("id = ?", userID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.UserNotFound, "User not found")
		}

		return nil, apperr.Internal(fmt.Errorf("failed to check if user exists, %w", err))
	}

	if err := s.users.Set(userID, &user); err != nil {
		zap.L().Warn("Failed to cache user", zap.Error(err))
	}

	return &user, nil
}

// capitalize turns a validator error into a message for clients
func capitalize(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}

	return strings.ToUpper(msg[:1]) + msg[1:]
}
