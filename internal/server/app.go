// Package server wires configuration, storage, the keychain and the
// authenticator together and runs the HTTP and gRPC endpoints until the
// process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/authenticator"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/keychain"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/keys"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	closers  []io.Closer
	keychain *keychain.Keychain
	keys     *services.KeyService
	auth     *authenticator.Authenticator
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, keychain: keychain.New()}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)

	if app.config.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", app.config.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, db)
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("db ping error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations error: %w", err)
		}
	} else {
		app.logger.Warn(ctx, "No database configured, users are kept in memory")
		rm = repomanager.NewMemoryRepositoryManager()
	}

	repo, err := app.openKeyStore(ctx, db, rm)
	if err != nil {
		return err
	}
	if repo != nil {
		app.keys, err = services.NewKeyService(repo, []byte(app.config.MasterKey))
		if err != nil {
			return err
		}
		n, err := app.keys.Load(ctx, app.keychain)
		if err != nil {
			return fmt.Errorf("loading keychain: %w", err)
		}
		app.logger.Info(ctx, "Keychain loaded", "keys", n, "store", app.config.KeyStore)
	}

	if err := app.initSigningKey(ctx); err != nil {
		return err
	}

	us := services.NewUserService(db, rm)
	app.auth = authenticator.New(app.keychain, us.GetUserByEmail, us.Create,
		authenticator.WithLogger(app.logger),
		authenticator.WithTokenTTL(app.config.TokenTTL),
	)
	return nil
}

// openKeyStore returns the configured key repository, or nil for "none".
func (app *App) openKeyStore(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) (keys.Repository, error) {
	kind := app.config.KeyStore
	if kind == "" || kind == config.KeyStoreNone {
		return nil, nil
	}
	if app.config.MasterKey == "" {
		return nil, fmt.Errorf("key store %q needs a master key: %w", kind, common.ErrInvalidKey)
	}

	switch kind {
	case config.KeyStorePostgres:
		if db == nil {
			return nil, errors.New("postgres key store needs a database DSN")
		}
		return rm.Keys(db), nil
	case config.KeyStoreSQLite:
		sdb, err := keys.OpenSQLite(ctx, app.config.KeyStorePath)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, sdb)
		return keys.NewSQLiteRepository(sdb), nil
	case config.KeyStoreS3:
		client, err := keys.NewS3Client(ctx, keys.S3Options{
			Region:   app.config.S3Region,
			User:     app.config.S3RootUser,
			Password: app.config.S3RootPassword,
			Endpoint: app.config.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return keys.NewS3Repository(client, app.config.S3Bucket, app.config.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown key store %q", kind)
	}
}

// initSigningKey makes sure SECRET_KEY is in the keychain. A configured
// secret wins over a stored one; with neither, a random key is generated.
func (app *App) initSigningKey(ctx context.Context) error {
	key := []byte(app.config.SecretKey)
	if len(key) == 0 {
		if _, ok := app.keychain.GetKey(common.SecretKeyName); ok {
			return nil
		}
		key = keychain.GenerateKey()
		if app.keys == nil {
			app.logger.Warn(ctx, "Generated an ephemeral signing key, tokens will not survive a restart")
		}
	}

	app.keychain.AddKey(common.SecretKeyName, key)
	if app.keys != nil {
		if err := app.keys.Save(ctx, common.SecretKeyName, key); err != nil {
			return fmt.Errorf("persisting signing key: %w", err)
		}
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth, app.keychain)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.auth, app.keychain, app.keys)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves both endpoints until ctx is cancelled, a signal arrives or one
// of the servers fails, then releases storage.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

// Close releases database handles opened by NewApp.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i].Close())
	}
	app.closers = nil
	return errors.Join(errs...)
}
