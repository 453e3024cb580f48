// Package app is the composition root: it turns a Config into a fully wired
// App that the HTTP server and the CLI both drive.
//
// DEPENDENCY GRAPH:
//
//	sqlite.DB (durable kv) ──┬─▶ blob.Store ─▶ CredentialStore ─┬─▶ AuthService
//	                         │                  FavoritesService ┤   ProfileService
//	                         ├─▶ Signed ─┐                       │
//	storage.Memory ──────────┼─▶ Signed ─┴─▶ SessionManager ─────┘
//	                         └─▶ APITokenStore ─▶ catalog.Client ─▶ catalog.View
//
// Nothing below this package reaches for a global; every service gets what it
// needs here, once.
//
// WHY SIGN ONLY THE SESSION SCOPES?
// The session record decides who is logged in. Users and favorites are read
// through the credential checks anyway, so a hand-edited blob cannot grant
// access, but a hand-edited session record could. Those two scopes go through
// storage.Signed; the rest of the durable data is stored as written.
package app

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/securecookie"

	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/catalog"
	"github.com/sakif/maxsports/internal/config"
	"github.com/sakif/maxsports/internal/repository/blob"
	sqliteRepo "github.com/sakif/maxsports/internal/repository/sqlite"
	"github.com/sakif/maxsports/internal/service"
	"github.com/sakif/maxsports/internal/storage"
)

// App holds every long-lived component.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Users     *service.CredentialStore
	Sessions  *service.SessionManager
	Favorites *service.FavoritesService
	Profiles  *service.ProfileService
	Auth      *service.AuthService

	Tokens    *auth.TokenService
	APITokens *auth.APITokenStore

	// Remote is nil when the catalog runs offline.
	Remote  *catalog.Client
	Source  catalog.Source
	Catalog *catalog.View

	db *sqliteRepo.DB
}

// Options are the parts of the wiring tests and the CLI replace.
type Options struct {
	// HTTPClient is used for the remote API. nil means a client with the
	// configured catalog timeout.
	HTTPClient *http.Client
	// Notifier receives password reset tokens. nil logs them.
	Notifier service.ResetNotifier
}

// New opens the durable store and wires the application. The caller owns
// the App and must Close it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	dbFile := cfg.DBFile()
	if err := os.MkdirAll(filepath.Dir(dbFile), 0o755); err != nil {
		return nil, fmt.Errorf("app: creating data directory: %w", err)
	}

	db, err := sqliteRepo.New(dbFile)
	if err != nil {
		return nil, fmt.Errorf("app: opening store: %w", err)
	}

	a, err := wire(ctx, cfg, logger, opts, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("application wired",
		slog.String("database", dbFile),
		slog.Bool("offline", cfg.Catalog.Offline),
	)
	return a, nil
}

func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options, db *sqliteRepo.DB) (*App, error) {
	jwtSecret, err := secret(ctx, db, storage.KeyJWTSecret, cfg.Auth.JWTSecret, newJWTSecret, logger)
	if err != nil {
		return nil, err
	}
	sessionKey, err := secret(ctx, db, storage.KeySessionKey, cfg.Auth.SessionKey, newSessionKey, logger)
	if err != nil {
		return nil, err
	}
	hashKey, err := decodeSessionKey(sessionKey)
	if err != nil {
		return nil, err
	}

	durable, err := storage.NewSigned(db, hashKey, logger)
	if err != nil {
		return nil, fmt.Errorf("app: signing durable scope: %w", err)
	}
	ephemeral, err := storage.NewSigned(storage.NewMemory(), hashKey, logger)
	if err != nil {
		return nil, fmt.Errorf("app: signing ephemeral scope: %w", err)
	}

	tokens, err := auth.NewTokenService(jwtSecret, cfg.Server.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("app: token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.Auth.BcryptCost)

	store := blob.New(db)
	users := service.NewCredentialStore(store, passwords, logger)
	sessions := service.NewSessionManager(storage.Scopes{Durable: durable, Ephemeral: ephemeral}, logger)
	favorites := service.NewFavoritesService(store, users, sessions, logger)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Users:     users,
		Sessions:  sessions,
		Favorites: favorites,
		Profiles:  service.NewProfileService(users, sessions, favorites, passwords, logger),
		Auth:      service.NewAuthService(users, sessions, tokens, opts.Notifier, logger),
		Tokens:    tokens,
		APITokens: auth.NewAPITokenStore(db),
		db:        db,
	}

	var bookmarks catalog.Bookmarker
	if cfg.Catalog.Offline {
		seed, err := catalog.NewSeedSource()
		if err != nil {
			return nil, fmt.Errorf("app: loading offline catalog: %w", err)
		}
		a.Source = seed
	} else {
		httpClient := opts.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.Catalog.Timeout}
		}
		client, err := catalog.NewClient(cfg.Catalog.BaseURL, httpClient, a.APITokens, logger)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.Remote = client
		a.Source = client
		if cfg.Catalog.SyncBookmarks {
			bookmarks = client
		}
	}
	a.Catalog = catalog.NewView(a.Source, favorites, bookmarks, cfg.Catalog.PageSize, logger)

	return a, nil
}

// Close releases the durable store.
func (a *App) Close() error {
	return a.db.Close()
}

// secret returns configured when set. Otherwise it returns the value
// persisted under key, generating and persisting one on first use, so that
// tokens and signed sessions survive a restart.
func secret(ctx context.Context, db storage.Scope, key, configured string, generate func() (string, error), logger *slog.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}

	stored, err := storage.GetString(ctx, db, key)
	if err != nil {
		return "", fmt.Errorf("app: reading %s: %w", key, err)
	}
	if stored != "" {
		return stored, nil
	}

	fresh, err := generate()
	if err != nil {
		return "", fmt.Errorf("app: generating %s: %w", key, err)
	}
	if err := db.Set(ctx, key, []byte(fresh)); err != nil {
		return "", fmt.Errorf("app: persisting %s: %w", key, err)
	}
	logger.Info("generated secret", slog.String("key", key))
	return fresh, nil
}

func newJWTSecret() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("no randomness available")
	}
	return hex.EncodeToString(key), nil
}

func newSessionKey() (string, error) {
	key := securecookie.GenerateRandomKey(64)
	if key == nil {
		return "", errors.New("no randomness available")
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// decodeSessionKey accepts the base64 form newSessionKey writes, and falls
// back to the raw bytes for a hand-written key of at least 32 characters.
func decodeSessionKey(s string) ([]byte, error) {
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) >= 32 {
		return key, nil
	}
	if len(s) >= 32 {
		return []byte(s), nil
	}
	return nil, errors.New("app: session key must be at least 32 bytes")
}
