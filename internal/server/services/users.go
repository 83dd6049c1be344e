// Package services contains server-side business logic: phone-number
// identity, the document store with its access rules, and attachment URLs.
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/dbx"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/server/auth"
	"github.com/dmitrijs2005/simpleshare/internal/server/config"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
	"github.com/dmitrijs2005/simpleshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/simpleshare/internal/server/repositories/users"
)

const saltSize = 32

var phoneNumber = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// ValidPhoneNumber reports whether s is an E.164 number such as +15550001.
func ValidPhoneNumber(s string) bool {
	return phoneNumber.MatchString(s)
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type SignInResult struct {
	UID         string
	DisplayName string
	Created     bool
	Tokens      *TokenPair
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// GetSalt returns the stored salt. Numbers that have never signed in get a
// salt derived from the server secret, stable across calls, so repeated
// lookups do not reveal whether a number is registered.
func (s *UserService) GetSalt(ctx context.Context, phone string) ([]byte, error) {
	if !ValidPhoneNumber(phone) {
		return nil, common.ErrorValidation
	}

	user, err := s.repomanager.Users(s.db).GetByPhoneNumber(ctx, phone)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.unknownSalt(phone), nil
		}
		s.logger.Error(ctx, "get salt", "error", err)
		return nil, common.ErrorInternal
	}
	return user.Salt, nil
}

func (s *UserService) unknownSalt(phone string) []byte {
	mac := hmac.New(sha256.New, s.jwtSecret)
	mac.Write([]byte("salt:" + phone))
	return mac.Sum(nil)
}

// SignIn checks verifier for phone and issues a token pair. The first
// sign-in of a number registers it with the given salt and verifier.
func (s *UserService) SignIn(ctx context.Context, phone string, salt, verifier []byte) (*SignInResult, error) {
	if !ValidPhoneNumber(phone) || len(verifier) == 0 {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)
	created := false

	user, err := repo.GetByPhoneNumber(ctx, phone)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		if len(salt) != saltSize {
			return nil, common.ErrorValidation
		}
		user, err = repo.Create(ctx, &models.User{PhoneNumber: phone, Salt: salt, Verifier: verifier})
		if errors.Is(err, users.ErrAlreadyExists) {
			// lost a race with a concurrent first sign-in
			user, err = repo.GetByPhoneNumber(ctx, phone)
		} else if err == nil {
			created = true
			s.logger.Info(ctx, "user registered", "uid", user.ID)
		}
		if err != nil {
			s.logger.Error(ctx, "register user", "error", err)
			return nil, common.ErrorInternal
		}
	case err != nil:
		s.logger.Error(ctx, "find user", "error", err)
		return nil, common.ErrorInternal
	}

	if user.Disabled {
		return nil, common.ErrAccountDisabled
	}
	if subtle.ConstantTimeCompare(user.Verifier, verifier) != 1 {
		return nil, common.ErrorUnauthorized
	}

	tokens, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		UID:         user.ID,
		DisplayName: s.displayName(ctx, user.ID),
		Created:     created,
		Tokens:      tokens,
	}, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user.Disabled {
		return nil, common.ErrAccountDisabled
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// LookupUser resolves a phone number to a uid and display name.
func (s *UserService) LookupUser(ctx context.Context, phone string) (*models.User, string, error) {
	if !ValidPhoneNumber(phone) {
		return nil, "", common.ErrorValidation
	}
	user, err := s.repomanager.Users(s.db).GetByPhoneNumber(ctx, phone)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", err
		}
		return nil, "", common.ErrorInternal
	}
	if user.Disabled {
		return nil, "", common.ErrorNotFound
	}
	return user, s.displayName(ctx, user.ID), nil
}

// Authenticate turns an access token into a uid.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetUIDFromToken(token, s.jwtSecret)
}

// PurgeExpiredTokens deletes refresh tokens that expired before now.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, time.Now())
}

func (s *UserService) displayName(ctx context.Context, uid string) string {
	doc, err := s.repomanager.Documents(s.db).Get(ctx, common.CollectionPublic, uid)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "read public info", "uid", uid, "error", err)
		}
		return ""
	}
	return doc.StringField("display_name")
}

func (s *UserService) generateTokenPair(ctx context.Context, uid string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(uid, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, uid, refresh, s.refreshTokenValidityDuration); err != nil {
		s.logger.Error(ctx, "store refresh token", "error", err)
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
