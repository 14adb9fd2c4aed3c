// Package dbtest starts a disposable postgres container for tests.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/sirupsen/logrus"
)

const (
	image = "postgres"
	tag   = "14-alpine"
)

// NewUnit starts postgres, applies the migrations and returns a connection
// to it. The container is purged when the test ends. The test is skipped
// when no docker daemon is reachable.
func NewUnit(t *testing.T, name string) *sqlx.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = time.Minute

	opts := dockertest.RunOptions{
		Repository: image,
		Tag:        tag,
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=" + name,
		},
	}

	resource, err := pool.RunWithOptions(&opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting %s:%s container: %v", image, tag, err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("purging container: %v", err)
		}
	})

	if err := resource.Expire(300); err != nil {
		t.Fatalf("setting container expiry: %v", err)
	}

	cfg := database.Config{
		User:         "postgres",
		Password:     "postgres",
		Host:         resource.GetHostPort("5432/tcp"),
		Name:         name,
		MaxIdleConns: 5,
		MaxOpenConns: 40,
		DisableTLS:   true,
	}

	var db *sqlx.DB
	err = pool.Retry(func() error {
		var err error
		if db, err = database.Open(cfg); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.StatusCheck(ctx, db); err != nil {
			db.Close()
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("connecting to %s: %v", cfg.Host, err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return db
}

// Logger returns a logger that only prints when the tests run verbose.
func Logger(t *testing.T) logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if !testing.Verbose() {
		log.SetLevel(logrus.PanicLevel)
	}
	return log.WithField("test", fmt.Sprintf("%q", t.Name()))
}
