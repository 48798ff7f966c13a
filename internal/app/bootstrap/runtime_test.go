package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/wolfman30/eyeclinic-web/internal/config"
	"github.com/wolfman30/eyeclinic-web/internal/notify"
	"github.com/wolfman30/eyeclinic-web/internal/session"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildSessionStoreMemory(t *testing.T) {
	cfg := &appconfig.Config{SessionStore: "memory", SessionMemorySize: 10, SessionTTL: time.Hour}

	store, closeFn, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBuildSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{SessionStore: "redis", RedisAddr: mr.Addr(), SessionTTL: time.Hour}

	store, closeFn, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if _, ok := store.(*session.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}
}

func TestBuildSessionStoreRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &appconfig.Config{SessionStore: "redis", RedisAddr: addr, SessionMemorySize: 10, SessionTTL: time.Hour}
	store, _, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Fatalf("expected memory fallback, got %T", store)
	}

	cfg.Env = "production"
	if _, _, err := BuildSessionStore(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error in production")
	}
}

func TestBuildSessionStoreUnknown(t *testing.T) {
	cfg := &appconfig.Config{SessionStore: "dynamo"}
	if _, _, err := BuildSessionStore(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.New("error")

	tests := []struct {
		name string
		cfg  appconfig.Config
		want string
	}{
		{"none", appconfig.Config{EmailProvider: "none"}, "stub"},
		{"sendgrid", appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test"}, "sendgrid"},
		{"sendgrid without key", appconfig.Config{EmailProvider: "sendgrid"}, "stub"},
		{"ses without client", appconfig.Config{EmailProvider: "ses"}, "stub"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sender, err := BuildEmailSender(&tc.cfg, nil, logger)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got string
			switch sender.(type) {
			case *notify.StubEmailSender:
				got = "stub"
			case *notify.SendGridSender:
				got = "sendgrid"
			case *notify.SESSender:
				got = "ses"
			}
			if got != tc.want {
				t.Fatalf("expected %s sender, got %T", tc.want, sender)
			}
		})
	}

	if _, err := BuildEmailSender(&appconfig.Config{EmailProvider: "pigeon"}, nil, logger); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
