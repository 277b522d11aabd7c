package database

import (
	"testing"

	gormlogger "gorm.io/gorm/logger"

	"gestion-cours/backend/config"
)

func TestGormConfig(t *testing.T) {
	cases := []struct {
		driver    string
		disableFK bool
	}{
		{config.DriverSQLite, true},
		{config.DriverPostgres, false},
	}
	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := GormConfig(tc.driver, "info")
			if cfg.DisableForeignKeyConstraintWhenMigrating != tc.disableFK {
				t.Errorf("DisableForeignKeyConstraintWhenMigrating = %v，期望 %v", cfg.DisableForeignKeyConstraintWhenMigrating, tc.disableFK)
			}
			if !cfg.TranslateError {
				t.Error("应开启 TranslateError")
			}
			if loc := cfg.NowFunc().Location(); loc.String() != "UTC" {
				t.Errorf("NowFunc 应返回 UTC，实际: %s", loc)
			}
		})
	}
}

func TestGormLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"debug":  gormlogger.Info,
		"info":   gormlogger.Warn,
		"warn":   gormlogger.Warn,
		"error":  gormlogger.Error,
		"":       gormlogger.Error,
	}
	for level, want := range cases {
		if got := gormLogLevel(level); got != want {
			t.Errorf("gormLogLevel(%q) = %v，期望 %v", level, got, want)
		}
	}
}
