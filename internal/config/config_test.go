package config

import (
	"testing"
	"time"
)

func TestLoadDevDefaults(t *testing.T) {
	for _, k := range []string{"ORACLE_URL", "DATABASE_URL", "JWT_SECRET", "PAYMENT_VERIFIER_URL", "APP_PORT", "SIGN_MESSAGE_PREFIX", "SIGN_MAX_AGE_SECONDS", "STORE_TIMEOUT_MS", "LOCK_TTL_MS", "PACK_PRICE_WEI"} {
		t.Setenv(k, "")
	}
	t.Setenv("DEV_MODE", "true")
	t.Setenv("MAX_PACKS_PER_REQUEST", "4")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	if cfg.AppPort != "8080" || cfg.SignMessagePrefix != "Flip Royale:" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StoreTimeout != 5*time.Second || cfg.MaxPacks != 4 || cfg.RedisDB != 0 {
		t.Fatalf("unexpected numeric config: timeout=%v max=%d db=%d", cfg.StoreTimeout, cfg.MaxPacks, cfg.RedisDB)
	}
	if cfg.SignMaxAge != 5*time.Minute || cfg.LockTTL != 15*time.Second {
		t.Fatalf("unexpected signing/lock config: maxAge=%v lock=%v", cfg.SignMaxAge, cfg.LockTTL)
	}
	if cfg.JWTSecret == "" || cfg.PackPriceWei != nil {
		t.Fatalf("unexpected secrets/pricing: %+v", cfg)
	}
}

func TestLoadPackPrice(t *testing.T) {
	t.Setenv("DEV_MODE", "true")
	t.Setenv("PAYMENT_VERIFIER_URL", "")
	t.Setenv("PACK_PRICE_WEI", "250000000000000000")

	cfg := Load()
	if cfg.PackPriceWei == nil || cfg.PackPriceWei.String() != "250000000000000000" {
		t.Fatalf("unexpected price %v", cfg.PackPriceWei)
	}
}

func TestCheckLockTTL(t *testing.T) {
	cases := []struct {
		lockTTL, storeTimeout time.Duration
		ok                    bool
	}{
		{15 * time.Second, 5 * time.Second, true},
		{15 * time.Second, 7500 * time.Millisecond, false},
		{15 * time.Second, 10 * time.Second, false},
		{10 * time.Second, 4 * time.Second, true},
	}
	for _, tc := range cases {
		err := checkLockTTL(tc.lockTTL, tc.storeTimeout)
		if (err == nil) != tc.ok {
			t.Fatalf("lock %s store %s: expected ok=%v, got %v", tc.lockTTL, tc.storeTimeout, tc.ok, err)
		}
	}
}
