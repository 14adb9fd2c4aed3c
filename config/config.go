package config

import (
	"time"

	"github.com/irsalhamdi/e-commerce-store/database"
)

type Config struct {
	Web  Web
	DB   database.Config
	Cors Cors
	Rate Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:3000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

// Rate limits requests per remote address. A zero Burst disables it.
type Rate struct {
	Burst  int           `conf:"default:20"`
	Every  time.Duration `conf:"default:50ms"`
	Expiry time.Duration `conf:"default:5m"`
}
