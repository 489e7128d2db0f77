package main

import (
	"log"
	"os"

	"github.com/Layr-Labs/tweetproof-go/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tweetproof",
		Usage: "Sign short posts with an Ed25519 identity and verify signed posts",
		Description: `Holds a long-lived Ed25519 identity derived from a 32 byte seed and attaches
detached signatures to short messages so anyone can confirm authorship.

The seed is kept in two channels: a session channel that expires and a durable
channel that does not. Reads prefer the session channel.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML config file",
				EnvVars: []string{config.EnvTweetproofConfig},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory for the badger channels (default ~/.tweetproof)",
				EnvVars: []string{config.EnvTweetproofDataDir},
			},
			&cli.StringFlag{
				Name:    "session-store",
				Usage:   "Session channel backend: badger, redis or memory",
				EnvVars: []string{config.EnvTweetproofSessionStore},
			},
			&cli.StringFlag{
				Name:    "durable-store",
				Usage:   "Durable channel backend: badger, redis or memory",
				EnvVars: []string{config.EnvTweetproofDurableStore},
			},
			&cli.DurationFlag{
				Name:    "session-expiry",
				Usage:   "Lifetime of the session copy of the seed",
				EnvVars: []string{config.EnvTweetproofSessionExpiry},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address for redis channels",
				EnvVars: []string{config.EnvTweetproofRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password for redis channels",
				EnvVars: []string{config.EnvTweetproofRedisPassword},
			},
			&cli.StringFlag{
				Name:    "storage-key",
				Usage:   "Key the seed is stored under",
				EnvVars: []string{config.EnvTweetproofStorageKeyName},
			},
			&cli.StringFlag{
				Name:    "verify-url",
				Usage:   "Base URL of the remote verification service",
				EnvVars: []string{config.EnvTweetproofVerifyURL},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for remote verification",
				EnvVars: []string{config.EnvTweetproofVerifyTimeout},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvTweetproofVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a new identity",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Store the new seed in both channels",
					},
				},
				Action: generateCommand,
			},
			{
				Name:   "show",
				Usage:  "Show the stored identity's public forms",
				Action: showCommand,
			},
			{
				Name:  "import",
				Usage: "Replace the stored identity with a seed or mnemonic",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "seed",
						Usage:   "Seed as 64 hex characters",
						EnvVars: []string{config.EnvTweetproofSeed},
					},
					&cli.StringFlag{
						Name:  "mnemonic",
						Usage: "24 word BIP-39 mnemonic",
					},
				},
				Action: importCommand,
			},
			{
				Name:  "export",
				Usage: "Print the stored identity in a backup or interchange format",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "hex, mnemonic or jwk",
						Value: "hex",
					},
				},
				Action: exportCommand,
			},
			{
				Name:   "clear",
				Usage:  "Remove the seed from both channels",
				Action: clearCommand,
			},
			{
				Name:  "sign",
				Usage: "Sign a message and print the signed artifact",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "message",
						Aliases: []string{"m"},
						Usage:   "Message to sign (read from stdin when omitted)",
					},
					&cli.StringFlag{
						Name:    "seed",
						Usage:   "Sign with this seed instead of the stored one",
						EnvVars: []string{config.EnvTweetproofSeed},
					},
				},
				Action: signCommand,
			},
			{
				Name:  "verify",
				Usage: "Verify a signed message locally and optionally remotely",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artifact",
						Usage: "Signed artifact: the message followed by a //sig: line",
					},
					&cli.StringFlag{
						Name:  "message",
						Usage: "Message text",
					},
					&cli.StringFlag{
						Name:  "signature",
						Usage: "Signature, base64 with or without //sig:",
					},
					&cli.StringFlag{
						Name:     "public-key",
						Usage:    "Public key: identity line, base64, hex or JWK",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "remote",
						Usage: "Also ask the remote verification service",
					},
				},
				Action: verifyCommand,
			},
		},
	}
}
