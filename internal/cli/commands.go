package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/auth"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/keychain"
	"github.com/dmitrijs2005/gophauth/internal/shared"
)

const (
	saltSize = 16
	// cliKeyID names the single key of the throwaway keychain used with -key.
	cliKeyID = "cli"
)

var errPasswordMismatch = errors.New("password does not match")

func (a *App) genKey(_ context.Context, args []string) error {
	fs := a.flagSet("genkey")
	passphrase := fs.Bool("passphrase", false, "derive the key from a prompted passphrase with argon2id")
	saltFlag := fs.String("salt", "", "base64url salt for -passphrase (random when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}

	if !*passphrase {
		fmt.Fprintln(a.out, keyEncoding.EncodeToString(keychain.GenerateKey()))
		return nil
	}

	salt := shared.GenerateRandByteArray(saltSize)
	if *saltFlag != "" {
		var err error
		if salt, err = keyEncoding.DecodeString(*saltFlag); err != nil {
			return fmt.Errorf("invalid salt: %w", err)
		}
	}

	pw, err := GetPassword(a.in, "Passphrase", a.err)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)
	if len(pw) == 0 {
		return errors.New("empty passphrase")
	}

	key := cryptox.DeriveKey(pw, salt)
	fmt.Fprintf(a.out, "key:  %s\nsalt: %s\n", keyEncoding.EncodeToString(key), keyEncoding.EncodeToString(salt))
	return nil
}

func (a *App) hash(_ context.Context, args []string) error {
	fs := a.flagSet("hash")
	if err := parse(fs, args); err != nil {
		return err
	}

	pw, err := GetPassword(a.in, "Password", a.err)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	h, err := cryptox.HashPassword(pw)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(h))
	return nil
}

func (a *App) check(_ context.Context, args []string) error {
	fs := a.flagSet("check")
	hash := fs.String("hash", "", "bcrypt hash to check against")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *hash == "" {
		fs.Usage()
		return errUsage
	}

	pw, err := GetPassword(a.in, "Password", a.err)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	if !cryptox.CheckPassword([]byte(*hash), pw) {
		return errPasswordMismatch
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

// keySource is the key selection shared by encrypt and decrypt: either a raw
// key on the command line or an entry of a local store.
type keySource struct {
	key    *string
	store  *string
	id     *string
	master *string
}

func (a *App) keySourceFlags(name string) (*flag.FlagSet, *keySource) {
	fs := a.flagSet(name)
	ks := &keySource{
		key:    fs.String("key", "", "base64url key material"),
		store:  fs.String("store", "", "SQLite key store file"),
		id:     fs.String("id", "", "key id inside -store"),
		master: fs.String("master", "", "master key of -store (or $"+envMasterKey+")"),
	}
	return fs, ks
}

// selectKey returns a keychain holding the selected key and the id to use.
func (a *App) selectKey(ctx context.Context, ks *keySource) (*keychain.Keychain, string, error) {
	switch {
	case *ks.key != "" && *ks.store != "":
		return nil, "", fmt.Errorf("%w: -key and -store are exclusive", errUsage)
	case *ks.key != "":
		raw, err := keyEncoding.DecodeString(*ks.key)
		if err != nil {
			return nil, "", fmt.Errorf("invalid key: %w", err)
		}
		kc := keychain.New()
		kc.AddKey(cliKeyID, raw)
		shared.WipeByteArray(raw)
		return kc, cliKeyID, nil
	case *ks.store != "":
		if *ks.id == "" {
			return nil, "", fmt.Errorf("%w: -store needs -id", errUsage)
		}
		st, err := a.openStore(ctx, *ks.store, *ks.master)
		if err != nil {
			return nil, "", err
		}
		defer st.close()
		return st.keychain, *ks.id, nil
	default:
		return nil, "", fmt.Errorf("%w: one of -key or -store is required", errUsage)
	}
}

func (a *App) encrypt(ctx context.Context, args []string) error {
	fs, ks := a.keySourceFlags("encrypt")
	if err := parse(fs, args); err != nil {
		return err
	}
	kc, id, err := a.selectKey(ctx, ks)
	if err != nil {
		return err
	}

	text, err := a.argOrLine(fs, "Plaintext")
	if err != nil {
		return err
	}

	ct, err := kc.Encrypt(id, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, ct)
	return nil
}

func (a *App) decrypt(ctx context.Context, args []string) error {
	fs, ks := a.keySourceFlags("decrypt")
	if err := parse(fs, args); err != nil {
		return err
	}
	kc, id, err := a.selectKey(ctx, ks)
	if err != nil {
		return err
	}

	ct, err := a.argOrLine(fs, "Ciphertext")
	if err != nil {
		return err
	}

	pt, err := kc.Decrypt(id, ct)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pt)
	return nil
}

func (a *App) issue(_ context.Context, args []string) error {
	fs := a.flagSet("issue")
	secret := fs.String("secret", "", "signing key")
	user := fs.String("user", "", "user id claim")
	email := fs.String("email", "", "email claim")
	ttl := fs.Duration("ttl", 0, "token lifetime (0 = no expiry)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *secret == "" || *user == "" {
		fs.Usage()
		return errUsage
	}

	token, err := auth.GenerateToken(*user, *email, []byte(*secret), *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) verify(_ context.Context, args []string) error {
	fs := a.flagSet("verify")
	secret := fs.String("secret", "", "signing key")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *secret == "" {
		fs.Usage()
		return errUsage
	}

	token, err := a.argOrLine(fs, "Token")
	if err != nil {
		return err
	}

	claims, err := auth.ParseToken(strings.TrimSpace(token), []byte(*secret))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "user_id: %s\nemail:   %s\n", claims.UserID, claims.Email)
	if claims.ExpiresAt != nil {
		fmt.Fprintf(a.out, "expires: %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
	return nil
}
