package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"github.com/suyash01/zawadi/internal/config"
)

const (
	poolerHost     = ".pooler.supabase.com"
	connectTimeout = 6
	attempts       = 3
)

// Candidates lists the connection strings to try, in order. DATABASE_URL
// wins; Supabase pooler URLs get a second candidate on the other pooler
// port. Without a URL the discrete DB_* settings are used.
func Candidates(cfg *config.Config) []string {
	raw := strings.TrimSpace(cfg.Database.URL)
	if raw == "" {
		if cfg.DB.Host == "" {
			return nil
		}
		return []string{keyValueDSN(cfg.DB)}
	}

	urls := []string{raw}
	if strings.Contains(strings.ToLower(raw), poolerHost) {
		switch {
		case strings.Contains(raw, ":5432/"):
			urls = append(urls, strings.Replace(raw, ":5432/", ":6543/", 1))
		case strings.Contains(raw, ":6543/"):
			urls = append(urls, strings.Replace(raw, ":6543/", ":5432/", 1))
		}
	}
	for i, u := range urls {
		urls[i] = withParams(u)
	}
	return urls
}

// withParams fills in sslmode, connect_timeout and application_name where
// the URL leaves them unset. Options the caller chose are kept.
func withParams(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	defaults := map[string]string{
		"sslmode":          "require",
		"connect_timeout":  strconv.Itoa(connectTimeout),
		"application_name": "zawadi",
	}
	for k, v := range defaults {
		if q.Get(k) == "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func keyValueDSN(db config.DBConfig) string {
	sslmode := db.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		quote(db.Host), quote(db.Port), quote(db.User), quote(db.Password), quote(db.Name), quote(sslmode), connectTimeout)
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Connect opens the first reachable candidate. Each one gets three attempts
// with exponential backoff starting at 200ms.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	candidates := Candidates(cfg)
	if len(candidates) == 0 {
		return nil, errors.New("neither DATABASE_URL nor DB_HOST is set")
	}

	var lastErr error
	for i, dsn := range candidates {
		db, err := open(ctx, dsn)
		if err == nil {
			return db, nil
		}
		log.Printf("database candidate %d/%d unreachable: %v", i+1, len(candidates), err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("connect: %w", lastErr)
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(3 * time.Minute)

	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
