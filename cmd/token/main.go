// Command token mints a bearer token for an owner id using the server's
// signing secret. Intended for local development and smoke tests.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ocr-pro/internal/config"
	"ocr-pro/internal/infra/security"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	owner := flag.String("owner", "", "owner id to put in the subject claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	flag.Parse()

	if *owner == "" {
		fmt.Fprintln(os.Stderr, "usage: token -owner <id> [-config path] [-ttl 1h]")
		os.Exit(2)
	}

	// dev=true: only the auth section matters here
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	svc, err := security.NewTokenService(cfg.Auth.HMACSecret, cfg.Auth.Issuer, lifetime, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token service: %v\n", err)
		os.Exit(1)
	}
	tok, id, err := svc.Mint(*owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "owner=%s jti=%s expires=%s\n", id.OwnerID, id.TokenID, id.ExpiresAt.Format(time.RFC3339))
}
