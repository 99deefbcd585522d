package utils

import (
	"database/sql"
	"net/url"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// PGConfig：Postgres 连接参数，来自 PG_* 环境变量
// 约束：扫描串行执行，连接池默认很小
type PGConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envIntOr(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

// PGConfigFromEnv：读取 PG_HOST / PG_PORT / PG_USER / PG_PASSWORD / PG_DB / PG_SSLMODE / PG_MAX_*
func PGConfigFromEnv() PGConfig {
	return PGConfig{
		Host:     envOr("PG_HOST", "localhost"),
		Port:     envOr("PG_PORT", "5432"),
		User:     envOr("PG_USER", "postgres"),
		Password: os.Getenv("PG_PASSWORD"),
		DB:       envOr("PG_DB", "tilescan"),
		SSLMode:  envOr("PG_SSLMODE", "disable"),
		MaxOpen:  envIntOr("PG_MAX_OPEN_CONNS", 4),
		MaxIdle:  envIntOr("PG_MAX_IDLE_CONNS", 2),
	}
}

// DSN：URL 形式，用户名与密码按 userinfo 规则转义
func (c PGConfig) DSN() string {
	u := url.URL{Scheme: "postgres", Host: c.Host + ":" + c.Port, Path: "/" + c.DB}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	return u.String()
}

func OpenPostgres(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}

// OpenPostgresFromEnv：PG_DSN 优先，否则由 PG_* 拼装
func OpenPostgresFromEnv() (*sql.DB, error) {
	c := PGConfigFromEnv()
	return OpenPostgres(envOr("PG_DSN", c.DSN()), c.MaxOpen, c.MaxIdle)
}
