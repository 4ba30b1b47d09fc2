package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"strings"

	"github.com/otsembank/otsem/pkg/cryptox"
	"github.com/otsembank/otsem/pkg/otsemsdk"
	"github.com/otsembank/otsem/pkg/tokenstore"
	"github.com/otsembank/otsem/pkg/tokenstore/drivers/redis"
	"github.com/otsembank/otsem/pkg/tokenstore/drivers/sqlite"
)

// sealInfo binds sealed values to this use of the master key.
const sealInfo = "otsem-cli session v1"

// openBackend opens the configured storage backend, sealed when asked.
func openBackend(ctx context.Context, cfg StoreConfig, seal SealConfig) (tokenstore.Backend, error) {
	var (
		backend tokenstore.Backend
		err     error
	)

	switch cfg.Driver {
	case DriverMemory:
		backend = tokenstore.NewMemoryBackend()

	case DriverSQLite:
		backend, err = openSQLite(cfg.DSN)

	case DriverRedis:
		backend, err = redis.Open(ctx, cfg.RedisURL, redis.WithNamespace(cfg.Namespace))

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	if !seal.Enabled {
		return backend, nil
	}

	material, err := cryptox.LoadKeyMaterial(seal.KeyFile)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	sealer, err := cryptox.NewSealer(material, sealInfo)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return tokenstore.NewSealedBackend(backend, sealer), nil
}

func openSQLite(dsn string) (*sqlite.Store, error) {
	// Make sure the directory of a file DSN exists.
	if path, ok := strings.CutPrefix(dsn, "file:"); ok {
		path, _, _ = strings.Cut(path, "?")
		if path != "" && path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, err
			}
		}
	}

	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}

// session is everything a command needs to talk to the API.
type session struct {
	tokens *tokenstore.Store
	client *otsemsdk.Client
}

func (s *session) Close() error {
	return s.tokens.Close()
}

// openSession builds the token store and an API client sharing one cookie
// jar. With an edge URL the access token is mirrored into that jar too.
// onUnauthorized runs when the API rejects the stored session.
func openSession(ctx context.Context, cfg *Config, onUnauthorized func(string)) (*session, error) {
	backend, err := openBackend(ctx, cfg.Store, cfg.Seal)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	var mirror tokenstore.CookieMirror = tokenstore.NopMirror{}
	if cfg.EdgeURL != "" {
		jm, err := tokenstore.NewJarMirror(jar, cfg.EdgeURL)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("invalid edge_url: %w", err)
		}
		mirror = jm
	}

	tokens := tokenstore.New(backend, mirror)

	// The jar lives only as long as the process, put the stored token back.
	if access, ok := tokens.AccessToken(ctx); ok {
		if err := mirror.Sync(ctx, access); err != nil {
			_ = tokens.Close()
			return nil, err
		}
	}

	client := otsemsdk.New(cfg.APIURL, tokens,
		otsemsdk.WithHTTPClient(&http.Client{Jar: jar, Timeout: otsemsdk.DefaultTimeout}),
		otsemsdk.WithUnauthorizedHandler(onUnauthorized),
	)

	return &session{tokens: tokens, client: client}, nil
}
