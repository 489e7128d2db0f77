package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Layr-Labs/tweetproof-go/pkg/clients/verifyClient"
	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/config"
	"github.com/Layr-Labs/tweetproof-go/pkg/identity"
	"github.com/Layr-Labs/tweetproof-go/pkg/identityStore"
	"github.com/Layr-Labs/tweetproof-go/pkg/keys"
	"github.com/Layr-Labs/tweetproof-go/pkg/logger"
	"github.com/Layr-Labs/tweetproof-go/pkg/signer"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/Layr-Labs/tweetproof-go/pkg/verifier"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// runtime bundles what every command needs
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *identityStore.Store
	id     *identity.Identity
}

func (r *runtime) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Sugar().Warnw("Failed to close seed store", "error", err)
		}
	}
	_ = r.logger.Sync()
}

// loadConfig builds the config from defaults, the optional file and flag overrides
func loadConfig(c *cli.Context) (*config.Config, error) {
	dataDir := c.String("data-dir")
	if dataDir == "" {
		var err error
		if dataDir, err = config.GetDefaultDataDirectory(); err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
	}

	cfg := config.DefaultConfig(dataDir)
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadConfigFile(path, dataDir); err != nil {
			return nil, err
		}
	}

	if c.IsSet("session-store") {
		t, err := config.ParsePersistenceType(c.String("session-store"))
		if err != nil {
			return nil, err
		}
		cfg.Storage.Session.Type = t
	}
	if c.IsSet("durable-store") {
		t, err := config.ParsePersistenceType(c.String("durable-store"))
		if err != nil {
			return nil, err
		}
		cfg.Storage.Durable.Type = t
	}
	if c.IsSet("session-expiry") {
		cfg.Storage.Session.Expiry = c.Duration("session-expiry")
	}
	if c.IsSet("redis-address") {
		cfg.Storage.Session.Redis.Address = c.String("redis-address")
		cfg.Storage.Durable.Redis.Address = c.String("redis-address")
	}
	if c.IsSet("redis-password") {
		cfg.Storage.Session.Redis.Password = c.String("redis-password")
		cfg.Storage.Durable.Redis.Password = c.String("redis-password")
	}
	if c.IsSet("storage-key") {
		cfg.Storage.Key = c.String("storage-key")
	}
	if c.IsSet("verify-url") {
		cfg.Client.VerifyURL = c.String("verify-url")
	}
	if c.IsSet("timeout") {
		cfg.Client.Timeout = c.Duration("timeout")
	}
	if c.Bool("verbose") {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// openRuntime opens the seed store and loads the identity from it
func openRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	l, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := identityStore.NewStoreFromConfig(&cfg.Storage, l)
	if err != nil {
		_ = l.Sync()
		return nil, fmt.Errorf("failed to open seed store: %w", err)
	}

	id := identity.NewIdentity(store, keys.NewLocalKeyManager(l, nil), l)
	id.Init(c.Context)

	return &runtime{cfg: cfg, logger: l, store: store, id: id}, nil
}

func printIdentity(w io.Writer, id *identity.Identity) {
	d := id.Display()
	_, _ = fmt.Fprintf(w, "Public key (hex): %s\n", d.PublicKeyHex)
	_, _ = fmt.Fprintf(w, "Identity line:    %s\n", d.IdentityLine)
}

// generateCommand handles the generate subcommand
func generateCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.id.Generate(); err != nil {
		return fmt.Errorf("failed to generate identity: %w", err)
	}

	w := c.App.Writer
	_, _ = fmt.Fprintf(w, "Seed (hex):       %s\n", rt.id.Display().SeedHex)
	printIdentity(w, rt.id)

	if c.Bool("save") {
		if err := rt.id.Persist(c.Context); err != nil {
			return fmt.Errorf("failed to save seed: %w", err)
		}
		_, _ = fmt.Fprintln(w, "Saved to session and durable storage.")
	}
	return nil
}

// showCommand handles the show subcommand
func showCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	w := c.App.Writer
	printIdentity(w, rt.id)
	_, _ = fmt.Fprintf(w, "Public key (b58): %s\n", keys.PublicKeyBase58(rt.id.KeyPair()))

	if rt.id.Loaded() {
		jwk, err := keys.PublicKeyJWK(rt.id.KeyPair())
		if err != nil {
			return fmt.Errorf("failed to render jwk: %w", err)
		}
		_, _ = fmt.Fprintf(w, "Public key (jwk): %s\n", jwk)
	} else {
		_, _ = fmt.Fprintln(w, "Public key (jwk): ")
	}
	return nil
}

// importCommand handles the import subcommand
func importCommand(c *cli.Context) error {
	seedText := c.String("seed")
	words := c.String("mnemonic")
	if (seedText == "") == (words == "") {
		return cli.Exit("Provide exactly one of --seed or --mnemonic.", 1)
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	if words != "" {
		if err := rt.id.ImportMnemonic(words); err != nil {
			return cli.Exit(fmt.Sprintf("Mnemonic could not be used: %v", err), 1)
		}
	} else if err := rt.id.Replace(seedText); err != nil {
		return cli.Exit(identity.Classify(seedText, err), 1)
	}

	if err := rt.id.Persist(c.Context); err != nil {
		return fmt.Errorf("failed to save seed: %w", err)
	}

	printIdentity(c.App.Writer, rt.id)
	return nil
}

// exportCommand handles the export subcommand
func exportCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.id.Loaded() {
		return cli.Exit(signer.RejectionMessage(types.ErrNoKey), 1)
	}

	var out string
	switch strings.ToLower(c.String("format")) {
	case "hex":
		out = rt.id.Display().SeedHex
	case "mnemonic":
		if out, err = keys.SeedToMnemonic(rt.id.Seed()); err != nil {
			return fmt.Errorf("failed to build mnemonic: %w", err)
		}
	case "jwk":
		data, err := keys.PublicKeyJWK(rt.id.KeyPair())
		if err != nil {
			return fmt.Errorf("failed to render jwk: %w", err)
		}
		out = string(data)
	default:
		return cli.Exit(fmt.Sprintf("Unsupported format %q (expected hex, mnemonic or jwk).", c.String("format")), 1)
	}

	_, _ = fmt.Fprintln(c.App.Writer, out)
	return nil
}

// clearCommand handles the clear subcommand
func clearCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.id.Clear(c.Context); err != nil {
		return fmt.Errorf("failed to clear seed: %w", err)
	}
	_, _ = fmt.Fprintln(c.App.Writer, "Identity cleared.")
	return nil
}

// signCommand handles the sign subcommand
func signCommand(c *cli.Context) error {
	message := c.String("message")
	if !c.IsSet("message") {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return fmt.Errorf("failed to read message from stdin: %w", err)
		}
		message = string(data)
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	if seedText := c.String("seed"); seedText != "" {
		// the override is never persisted
		if err := rt.id.Replace(seedText); err != nil {
			return cli.Exit(signer.RejectionMessage(err), 1)
		}
	}

	artifact, err := rt.id.Sign(message)
	if err != nil {
		return cli.Exit(signer.RejectionMessage(err), 1)
	}
	_, _ = fmt.Fprintln(c.App.Writer, artifact.String())
	return nil
}

// verifyCommand handles the verify subcommand
func verifyCommand(c *cli.Context) error {
	message := c.String("message")
	signature := c.String("signature")
	if text := c.String("artifact"); text != "" {
		artifact, err := signer.ParseSignedArtifact(text)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Artifact could not be read: %v", err), 1)
		}
		message = artifact.Message
		signature = artifact.SignatureLine()
	}
	publicKey := c.String("public-key")
	// unreadable keys are passed through as typed so the check reports invalid
	if pub, err := keys.ParseAnyPublicKey(publicKey); err == nil {
		publicKey = codec.EncodeBase64(pub)
	}

	report := verifier.Report{
		Local:  verifier.StatusFromBool(verifier.VerifyLocal(message, signature, publicKey)),
		Remote: verifier.StatusNotVerified,
	}

	if c.Bool("remote") {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		l, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()

		client, err := verifyClient.NewClient(&verifyClient.ClientConfig{
			BaseURL: cfg.Client.VerifyURL,
			Timeout: cfg.Client.Timeout,
			Retry: &verifyClient.RetryConfig{
				MaxAttempts:     cfg.Client.MaxAttempts,
				InitialBackoff:  verifyClient.DefaultRetryConfig.InitialBackoff,
				MaxBackoff:      verifyClient.DefaultRetryConfig.MaxBackoff,
				BackoffMultiple: verifyClient.DefaultRetryConfig.BackoffMultiple,
			},
			Logger: l,
		})
		if err != nil {
			return fmt.Errorf("failed to create verify client: %w", err)
		}

		tracker := verifier.NewTracker(client, &verifier.TrackerConfig{Timeout: cfg.Client.Timeout}, l)
		tracker.Dispatch(c.Context, message, signature, publicKey)
		tracker.Wait()
		report.Remote = tracker.Status()
	}

	w := c.App.Writer
	_, _ = fmt.Fprintf(w, "local:  %s\n", report.Local)
	_, _ = fmt.Fprintf(w, "remote: %s\n", report.Remote)

	if report.Local != verifier.StatusValid {
		return cli.Exit("", 1)
	}
	return nil
}
