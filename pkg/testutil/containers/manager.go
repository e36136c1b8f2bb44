//go:build integration

// Package containers starts shared testcontainers for integration suites.
// Containers are started once per test binary and reaped by Ryuk.
package containers

import (
	"context"
	"sync"
	"testing"
)

type lazy[T any] struct {
	once sync.Once
	val  *T
	err  error
}

func (l *lazy[T]) get(t *testing.T, start func(context.Context) (*T, error)) *T {
	t.Helper()
	l.once.Do(func() {
		l.val, l.err = start(context.Background())
	})
	if l.err != nil {
		t.Skipf("container unavailable: %v", l.err)
	}
	return l.val
}

var (
	sharedPostgres lazy[Postgres]
	sharedRedis    lazy[Redis]
	sharedRedpanda lazy[Redpanda]
)

// GetPostgres returns the shared Postgres container, starting it on first use.
func GetPostgres(t *testing.T) *Postgres {
	return sharedPostgres.get(t, startPostgres)
}

func GetRedis(t *testing.T) *Redis {
	return sharedRedis.get(t, startRedis)
}

func GetRedpanda(t *testing.T) *Redpanda {
	return sharedRedpanda.get(t, startRedpanda)
}
