package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/keychain"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/keys"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/shared"
)

// store is an opened local key store with its contents loaded.
type store struct {
	db       *sql.DB
	service  *services.KeyService
	keychain *keychain.Keychain
}

func (s *store) close() { _ = s.db.Close() }

func (a *App) openStore(ctx context.Context, path, masterFlag string) (*store, error) {
	master, err := a.masterKey(masterFlag)
	if err != nil {
		return nil, err
	}
	defer shared.WipeByteArray(master)

	db, err := keys.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}

	svc, err := services.NewKeyService(keys.NewSQLiteRepository(db), master)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	kc := keychain.New()
	if _, err := svc.Load(ctx, kc); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return &store{db: db, service: svc, keychain: kc}, nil
}

// keysCmd dispatches "keys add|list|rm".
func (a *App) keysCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.err, "Usage: gophauth keys <add|list|rm> -store FILE [-master KEY] [-id ID]")
		return errUsage
	}
	sub, args := args[0], args[1:]

	fs := a.flagSet("keys " + sub)
	path := fs.String("store", "", "SQLite key store file")
	master := fs.String("master", "", "master key (or $"+envMasterKey+")")
	id := fs.String("id", "", "key id")
	value := fs.String("value", "", "base64url key material for add (random when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *path == "" || (sub != "list" && *id == "") {
		fs.Usage()
		return errUsage
	}

	st, err := a.openStore(ctx, *path, *master)
	if err != nil {
		return err
	}
	defer st.close()

	switch sub {
	case "list":
		for _, kid := range st.keychain.IDs() {
			fmt.Fprintln(a.out, kid)
		}
		return nil
	case "add":
		if _, exists := st.keychain.GetKey(*id); exists {
			return fmt.Errorf("key %q already exists", *id)
		}
		key := keychain.GenerateKey()
		if *value != "" {
			if key, err = keyEncoding.DecodeString(*value); err != nil {
				return fmt.Errorf("invalid key: %w", err)
			}
		}
		defer shared.WipeByteArray(key)
		if err := st.service.Save(ctx, *id, key); err != nil {
			return err
		}
		fmt.Fprintln(a.out, *id)
		return nil
	case "rm":
		if _, exists := st.keychain.GetKey(*id); !exists {
			return fmt.Errorf("key %q not found", *id)
		}
		return st.service.Delete(ctx, *id)
	default:
		return fmt.Errorf("%w: unknown keys command %q", errUsage, sub)
	}
}
