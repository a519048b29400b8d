// Command seed issues redemption codes for a user. Codes are created
// out-of-band; the running service only reads and consumes them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"ai-fortune-report/internal/config"
	pg "ai-fortune-report/internal/infra/db/postgres"
	"ai-fortune-report/internal/infra/logging"
	"ai-fortune-report/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	owner := flag.String("owner", "", "user id to bind the codes to (required)")
	count := flag.Int("count", 1, "number of codes to issue")
	ttl := flag.Duration("ttl", 0, "code validity (0 = no expiry)")
	flag.Parse()

	if *owner == "" {
		log.Fatal("-owner is required")
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	codeUC := usecase.NewCodeUseCase(pg.NewCodeRepo(pool), pg.NewUserRepo(pool), logger)

	var expiresAt *time.Time
	if *ttl > 0 {
		t := time.Now().Add(*ttl)
		expiresAt = &t
	}

	codes, err := codeUC.Issue(ctx, *owner, *count, expiresAt)
	if err != nil {
		log.Fatalf("issue codes: %v", err)
	}
	for _, c := range codes {
		fmt.Println(c.Display())
	}
	fmt.Printf("issued %d code(s) for %s\n", len(codes), *owner)
}
