package module

import (
	"basematch/internal/core/swipe"
	"basematch/internal/platform/config"
	"basematch/internal/platform/store"
	svc "basematch/internal/services/decisions/service"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Options selects and tunes the decision store backend
type Options struct {
	Driver    string
	Namespace string
	Capacity  int
	Table     string
}

// FromConfig reads BASEMATCH_STORE_DRIVER, BASEMATCH_STORE_NAMESPACE, BASEMATCH_QUEUE_CAPACITY
// and BASEMATCH_STORE_TABLE from the root config
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("BASEMATCH_")
	return Options{
		Driver:    c.MayEnum("STORE_DRIVER", DriverSQLite, DriverSQLite, DriverPostgres, DriverRedis, DriverMemory),
		Namespace: c.MayString("STORE_NAMESPACE", svc.DefaultNamespace),
		Capacity:  c.MayInt("QUEUE_CAPACITY", swipe.DefaultCapacity),
		Table:     c.MayString("STORE_TABLE", ""),
	}
}

// StoreConfig enables the backends the driver needs, plus clickhouse when a DSN is set
func StoreConfig(cfg config.Conf, driver string) store.Config {
	app := cfg.Prefix("BASEMATCH_")
	pg := cfg.Prefix("SERVICE_PGSQL_")
	rds := cfg.Prefix("SERVICE_REDIS_")
	ch := cfg.Prefix("SERVICE_CLICKHOUSE_")

	sc := store.Config{AppName: "basematch"}
	switch driver {
	case DriverPostgres:
		sc.PG = store.PGConfig{
			Enabled:     true,
			URL:         pg.MustString("DBURL"),
			MaxConns:    int32(pg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pg.MayInt("SLOW_MS", 500),
			LogSQL:      pg.MayBool("LOG_SQL", false),
		}
	case DriverRedis:
		sc.RDS = store.RedisConfig{
			Enabled:  true,
			Addr:     rds.MayString("ADDR", "127.0.0.1:6379"),
			Password: rds.MayString("PASSWORD", ""),
			DB:       rds.MayInt("DB", 0),
		}
	case DriverSQLite:
		sc.Lite = store.LiteConfig{Enabled: true, Path: app.MayString("SQLITE_PATH", "basematch.db")}
	}
	if dsn := ch.MayString("DBURL", ""); dsn != "" {
		sc.CH = store.CHConfig{Enabled: true, URL: dsn, ClientName: "basematch", ClientTag: "journal"}
	}
	return sc
}
