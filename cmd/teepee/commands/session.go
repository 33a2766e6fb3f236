package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"teepee-scraper/internal/components/telemetry"
	"teepee-scraper/internal/config"
	"teepee-scraper/internal/credentials"
	"teepee-scraper/internal/scraper"
	"teepee-scraper/internal/teepee"
	"teepee-scraper/internal/validator"
)

type session struct {
	cfg     config.Config
	tel     telemetry.API
	client  *teepee.Client
	scraper *scraper.Scraper
}

func loadConfig() (config.Config, error) {
	path := *configPath
	if path == "" {
		return config.Load(config.DefaultPath(), false)
	}
	return config.Load(path, true)
}

func newStore(cfg config.Config) credentials.Store {
	if *noKeyring {
		return credentials.NewMemoryStore()
	}
	return credentials.KeyringStore{Service: cfg.KeyringService}
}

// authenticate logs client in as username, asking for the username first
// when it is empty. A stored password is used as is, otherwise the user is
// prompted until the portal accepts a password or the validator gives up.
func authenticate(
	ctx context.Context,
	client validator.Loginer,
	store credentials.Store,
	username string,
	p prompter,
	tel telemetry.API,
) (credentials.Credential, error) {
	var err error
	if username == "" {
		username, err = p.Text("Username: ")
		if err != nil {
			return credentials.Credential{}, fmt.Errorf("read username: %w", err)
		}
	}
	cred, err := credentials.New(username, store)
	if err != nil {
		return credentials.Credential{}, err
	}

	if cred.HasPassword() {
		err = client.Login(ctx, cred)
		if errors.Is(err, teepee.ErrAuthenticationFailed) {
			return cred, fmt.Errorf("the stored password was rejected, forget it with `teepee logout`: %w", err)
		}
		return cred, err
	}

	v := validator.New(cred, client, tel)
	err = v.Run(ctx, func(ctx context.Context, previous error) (string, error) {
		if previous != nil {
			fmt.Fprintf(p.out, "Wrong username or password, %d tries left.\n", v.Remaining())
		}
		return p.Password("Password: ")
	})
	return cred, err
}

// authenticateFromEnv logs client in with TEEPEE_USERNAME and
// TEEPEE_PASSWORD, the password never reaches the keyring.
func authenticateFromEnv(ctx context.Context, client validator.Loginer) (credentials.Credential, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return credentials.Credential{}, err
	}
	if !env.Complete() {
		return credentials.Credential{}, fmt.Errorf("--from-env needs both TEEPEE_USERNAME and TEEPEE_PASSWORD")
	}
	cred, err := credentials.New(env.Username, credentials.NewMemoryStore())
	if err != nil {
		return credentials.Credential{}, err
	}
	err = cred.SetPassword(env.Password)
	if err != nil {
		return credentials.Credential{}, err
	}
	return cred, client.Login(ctx, cred)
}

// openSession reads the config and returns a logged in session.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	tel := telemetry.SlogAPI{}

	opts, err := cfg.ClientOptions()
	if err != nil {
		return nil, err
	}
	client, err := teepee.NewClient(opts, tel)
	if err != nil {
		return nil, err
	}

	if *fromEnv {
		_, err = authenticateFromEnv(ctx, client)
	} else {
		// prompts go to stderr so that stdout stays clean for --json
		_, err = authenticate(ctx, client, newStore(cfg), cfg.Username, newPrompter(os.Stdin, os.Stderr), tel)
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s, err := scraper.New(client, cfg.Selectors, tel)
	if err != nil {
		return nil, fmt.Errorf("selectors: %w", err)
	}
	return &session{
		cfg:     cfg,
		tel:     tel,
		client:  client,
		scraper: s,
	}, nil
}
