// Command token mints an access token for operators and local testing.
//
//	go run ./cmd/token -user 4 -role SPECIALIST
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/unihaven/placement-api/internal/config"
	"github.com/unihaven/placement-api/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadTokenConfig()

	user := flag.Uint64("user", 0, "subject user id")
	role := flag.String("role", "MEMBER", "MEMBER, SPECIALIST or OWNER")
	ttl := flag.Duration("ttl", cfg.TTL, "token lifetime")
	flag.Parse()

	tok, err := utils.NewAccessToken(cfg.Secret, *user, *role, *ttl)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	fmt.Fprintln(os.Stdout, tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
