package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suyash01/zawadi/internal/config"
	"github.com/suyash01/zawadi/internal/database"
	"github.com/suyash01/zawadi/internal/handlers"
	"github.com/suyash01/zawadi/internal/reminder"
	"github.com/suyash01/zawadi/internal/session"
	"github.com/suyash01/zawadi/internal/store"
	"github.com/suyash01/zawadi/internal/web"
	"github.com/suyash01/zawadi/internal/workflow"
	"github.com/suyash01/zawadi/migrations"
)

func main() {
	cfgPath := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, using UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := openStore(ctx, cfg)

	web.InitTemplates()

	flow := workflow.New(backend)
	flow.Now = now

	if cfg.Treasurer.Password == "" {
		log.Println("TREASURER_PASSWORD is not set; treasurer login is disabled")
	}
	sessions, err := session.NewManager(cfg.Treasurer.Password, cfg.Session.Timeout)
	if err != nil {
		log.Fatal(err)
	}
	go sweepSessions(ctx, sessions)

	var sender reminder.Sender = reminder.Disabled{}
	if cfg.SMTP.Enabled() {
		sender = reminder.SMTPSender{
			Server:   cfg.SMTP.Server,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.AppPassword,
		}
	}
	notifier := reminder.NewNotifier(backend, sender)
	notifier.Now = now
	if cfg.SMTP.Enabled() {
		notifier.Start(ctx, cfg.Reminder.Interval)
	} else {
		log.Println("SMTP credentials not set; monthly reminders are off")
	}

	h := handlers.New(backend, flow, sessions, notifier)
	h.Now = now

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openStore connects to Postgres and migrates it. When every candidate
// fails the app still starts, offline.
func openStore(ctx context.Context, cfg *config.Config) *store.Switch {
	if cfg.StoreDriver == "memory" {
		log.Println("using in-memory store")
		return store.NewSwitch(store.NewMemory(), nil)
	}

	connect := func(ctx context.Context) (store.Store, error) {
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, migrations.FS); err != nil {
			db.Close()
			return nil, err
		}
		return store.NewPostgres(db), nil
	}

	live, err := connect(ctx)
	if err != nil {
		sw := store.NewSwitch(nil, connect)
		sw.GoOffline(err)
		log.Printf("database unavailable, starting in offline mode: %v", err)
		return sw
	}
	return store.NewSwitch(live, connect)
}

func sweepSessions(ctx context.Context, m *session.Manager) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
