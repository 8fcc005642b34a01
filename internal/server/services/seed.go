package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"gopkg.in/yaml.v3"
)

type seedPrincipal struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type seedFile struct {
	Admins []seedPrincipal `yaml:"admins"`
	Users  []seedPrincipal `yaml:"users"`
}

// Seeder provisions principals from a YAML file at startup. It is the only
// way regular users come into existence.
type Seeder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	log         logging.Logger
}

func NewSeeder(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, log logging.Logger) *Seeder {
	return &Seeder{db: db, repomanager: m, hasher: hasher, log: log}
}

// SeedFromFile creates every listed principal whose username and email are
// both unused in its namespace, and returns how many were created. Entries
// without a username, email or password are skipped with a warning.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	created := 0
	for _, group := range []struct {
		kind    models.Kind
		entries []seedPrincipal
	}{
		{models.KindAdmin, sf.Admins},
		{models.KindRegular, sf.Users},
	} {
		n, err := s.seed(ctx, group.kind, group.entries)
		created += n
		if err != nil {
			return created, err
		}
	}

	s.log.Info(ctx, "seed complete", "path", path, "created", created)
	return created, nil
}

func (s *Seeder) seed(ctx context.Context, kind models.Kind, entries []seedPrincipal) (int, error) {
	repo := s.repomanager.Principals(s.db, kind)
	created := 0

	for _, e := range entries {
		if strings.TrimSpace(e.Username) == "" || strings.TrimSpace(e.Email) == "" || e.Password == "" {
			s.log.Warn(ctx, "seed entry skipped: missing username, email or password",
				"kind", kind.String(), "username", e.Username)
			continue
		}

		_, err := repo.Find(ctx, e.Username, e.Email)
		if err == nil {
			s.log.Debug(ctx, "seed entry exists", "kind", kind.String(), "username", e.Username)
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return created, fmt.Errorf("seed %s %q: %w", kind, e.Username, err)
		}

		hash, err := s.hasher.HashPassword(e.Password)
		if err != nil {
			return created, fmt.Errorf("seed %s %q: %w", kind, e.Username, err)
		}

		if _, err := repo.Create(ctx, &models.Principal{
			Username:     e.Username,
			Email:        e.Email,
			PasswordHash: hash,
		}); err != nil {
			return created, fmt.Errorf("seed %s %q: %w", kind, e.Username, err)
		}
		created++
	}

	return created, nil
}
