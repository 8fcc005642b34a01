// Package services contains server-side business logic. This file implements
// AuthService: signup and signin for both principal namespaces, token
// refresh and resolution, and the role lookups the catalog relies on.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/blob"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
)

// SignupInput is what a client submits to create an account. ProfileImage is
// optional.
type SignupInput struct {
	Username         string
	Email            string
	Password         string
	ProfileImage     io.Reader
	ProfileImageName string
}

// SigninResult is the authenticated principal plus a fresh token pair.
type SigninResult struct {
	Principal *models.Principal
	Tokens    *auth.TokenPair
}

// AuthService implements the authentication core on top of the principal
// repositories, the token service and the password hasher.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *auth.Hasher
	uploader    blob.Uploader
}

// NewAuthService builds the token service and hasher from cfg.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, uploader blob.Uploader) (*AuthService, error) {
	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.SigningAlgorithm,
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      auth.NewHasher(cfg.PasswordHashCost),
		uploader:    uploader,
	}, nil
}

// SignupAdmin creates an admin principal.
func (s *AuthService) SignupAdmin(ctx context.Context, in SignupInput) (*models.Principal, error) {
	return s.signup(ctx, models.KindAdmin, in)
}

// SignupUser never creates anything. An unknown username yields ErrNotFound;
// a known one then collides in the duplicate check and yields
// ErrDuplicateIdentity. Regular principals come from the seed file.
func (s *AuthService) SignupUser(ctx context.Context, in SignupInput) (*models.Principal, error) {
	repo := s.repomanager.Principals(s.db, models.KindRegular)
	if _, err := repo.FindByUsername(ctx, in.Username); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, unavailable(err)
	}
	return s.signup(ctx, models.KindRegular, in)
}

func (s *AuthService) signup(ctx context.Context, kind models.Kind, in SignupInput) (*models.Principal, error) {
	if err := validateSignup(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Principals(s.db, kind)
	_, err := repo.Find(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateIdentity
	case !errors.Is(err, common.ErrNotFound):
		return nil, unavailable(err)
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var imageURL string
	if in.ProfileImage != nil {
		imageURL, err = s.uploader.Upload(ctx, in.ProfileImageName, in.ProfileImage)
		if err != nil {
			return nil, err
		}
	}

	p := &models.Principal{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Principals(tx, kind)
		if _, err := repoTx.Create(ctx, p); err != nil {
			return err
		}
		if imageURL == "" {
			return nil
		}
		if err := repoTx.SetProfileImage(ctx, p.ID, imageURL); err != nil {
			return err
		}
		p.ProfileImageURL = imageURL
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, common.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("error creating %s: %w", kind, err)
	}

	return p.Public(), nil
}

func validateSignup(in SignupInput) error {
	var missing []string
	if strings.TrimSpace(in.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// SigninAdmin authenticates an admin by email.
func (s *AuthService) SigninAdmin(ctx context.Context, email, password string) (*SigninResult, error) {
	repo := s.repomanager.Principals(s.db, models.KindAdmin)
	p, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err)
	}
	return s.signin(p, password)
}

// SigninUser authenticates a regular principal by username.
func (s *AuthService) SigninUser(ctx context.Context, username, password string) (*SigninResult, error) {
	repo := s.repomanager.Principals(s.db, models.KindRegular)
	p, err := repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, lookupError(err)
	}
	return s.signin(p, password)
}

func (s *AuthService) signin(p *models.Principal, password string) (*SigninResult, error) {
	if err := s.hasher.VerifyPassword(p.PasswordHash, password); err != nil {
		return nil, err
	}
	pair, err := s.tokens.IssuePair(p.ID, p.Username)
	if err != nil {
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}
	return &SigninResult{Principal: p.Public(), Tokens: pair}, nil
}

// Resolve returns the identity behind an access token. It performs no role
// check.
func (s *AuthService) Resolve(ctx context.Context, accessToken string) (*auth.Identity, error) {
	return s.tokens.ResolveIdentity(accessToken)
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	return s.tokens.Refresh(refreshToken)
}

// RequireAdmin returns the admin principal for subject, or ErrForbidden.
func (s *AuthService) RequireAdmin(ctx context.Context, subject string) (*models.Principal, error) {
	p, err := s.repomanager.Principals(s.db, models.KindAdmin).FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, unavailable(err)
	}
	return p, nil
}

// RequireAuthenticated returns the principal for subject from either
// namespace, or ErrForbidden when neither knows it.
func (s *AuthService) RequireAuthenticated(ctx context.Context, subject string) (*models.Principal, error) {
	for _, kind := range []models.Kind{models.KindAdmin, models.KindRegular} {
		p, err := s.repomanager.Principals(s.db, kind).FindByID(ctx, subject)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, unavailable(err)
		}
	}
	return nil, common.ErrForbidden
}

func lookupError(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return err
	}
	return unavailable(err)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", common.ErrAuthServiceUnavailable, err)
}
