// Command token issues a bearer token for a caller address, signed with
// AUTH_JWT_SECRET. Admins present it to the ledger API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sheikh-saqib/org-finance-ledger/internal/auth"
	"github.com/sheikh-saqib/org-finance-ledger/internal/config"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

func main() {
	address := flag.String("address", "", "caller address the token acts as")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to AUTH_TOKEN_TTL_MINUTES")
	flag.Parse()

	if err := run(*address, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
}

func run(address string, ttl time.Duration) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadAuth()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}

	addr, err := models.ParseAddress(address)
	if err != nil {
		return err
	}

	authority, err := auth.New(cfg.Secret, ttl)
	if err != nil {
		return err
	}
	token, expires, err := authority.Issue(addr)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "expires", expires.UTC().Format(time.RFC3339))
	return nil
}
