package redis

// Config contains Redis connection settings for the shared model directory.
type Config struct {
	Enabled    bool   `env:"REDIS_ENABLED"     envDefault:"false"`
	Addr       string `env:"REDIS_ADDR"        envDefault:"localhost:6379"`
	Password   string `env:"REDIS_PASSWORD"`
	DB         int    `env:"REDIS_DB"          envDefault:"0"`
	CatalogKey string `env:"REDIS_CATALOG_KEY" envDefault:"catalog:models"`
}
