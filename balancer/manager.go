// Package balancer implements BalanceManager: given a RegistryCenter, it
// periodically reconciles service -> addresses into live client pools and
// exposes a by-service typed call.
package balancer

import (
	"context"
	"log"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/spiral/errors"

	"drpc/client"
	"drpc/loadbalance"
	"drpc/registry"
)

// ManagerConfig configures selection strategy and reconcile cadence.
type ManagerConfig struct {
	Balance  loadbalance.Strategy
	Interval time.Duration
}

// DefaultManagerConfig is Round selection with a 5-second reconcile
// interval; push TTL is Interval*2.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{Balance: loadbalance.Round, Interval: 5 * time.Second}
}

// Manager holds one LoadBalance[*client.Client] pool per service, kept in
// sync with a RegistryCenter.
type Manager struct {
	cfg      ManagerConfig
	registry registry.Center

	mu      sync.RWMutex
	clients map[string]*loadbalance.LoadBalance[*client.Client]
}

// NewManager wraps cfg and reg.
func NewManager(cfg ManagerConfig, reg registry.Center) *Manager {
	return &Manager{
		cfg:      cfg,
		registry: reg,
		clients:  make(map[string]*loadbalance.LoadBalance[*client.Client]),
	}
}

// Pull reconciles the live pools against one registry snapshot.
//
// An empty pull clears every pool: the registry reporting nothing alive is
// treated conservatively as "nothing is alive," not as "the registry had a
// transient hiccup."
//
// Dial failures for individual addresses are collected with multierr and
// returned together, without aborting the reconcile of the remaining
// addresses or services.
func (m *Manager) Pull(ctx context.Context) error {
	const op = errors.Op("balance_manager_pull")

	fresh, err := m.registry.Pull(ctx)
	if err != nil {
		return errors.E(op, err)
	}

	if len(fresh) == 0 {
		m.mu.RLock()
		pools := make([]*loadbalance.LoadBalance[*client.Client], 0, len(m.clients))
		for _, pool := range m.clients {
			pools = append(pools, pool)
		}
		m.mu.RUnlock()

		for _, pool := range pools {
			for _, addr := range pool.Addrs() {
				pool.Remove(addr, shutdownIdle)
			}
		}
		return nil
	}

	var errs error

	for service, addrs := range fresh {
		pool := m.poolFor(service)
		wanted := make(map[string]bool, len(addrs))
		for _, addr := range addrs {
			wanted[addr] = true
			if pool.Contains(addr) {
				continue
			}
			c, err := client.Dial(addr)
			if err != nil {
				errs = multierr.Append(errs, errors.E(op, err))
				continue
			}
			pool.Put(c)
		}

		for _, addr := range pool.Addrs() {
			if !wanted[addr] {
				pool.Remove(addr, shutdownIdle)
			}
		}
	}

	return errs
}

// shutdownIdle closes a client evicted from a pool. It is only ever invoked
// by loadbalance.LoadBalance.Remove once no outstanding Handle still
// references the client, so it never races an in-flight Call.
func shutdownIdle(c *client.Client) {
	if err := c.Shutdown(); err != nil {
		log.Printf("drpc: balance manager: shutdown %s: %v", c.Addr(), err)
	}
}

func (m *Manager) poolFor(service string) *loadbalance.LoadBalance[*client.Client] {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.clients[service]
	if !ok {
		pool = loadbalance.New[*client.Client]()
		m.clients[service] = pool
	}
	return pool
}

// SpawnPull runs Pull forever, logging any error, sleeping Interval
// between attempts, until ctx is cancelled.
func (m *Manager) SpawnPull(ctx context.Context) {
	for {
		if err := m.Pull(ctx); err != nil {
			log.Printf("drpc: balance manager: pull: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.Interval):
		}
	}
}

// Push registers liveness of addr for service with a TTL of Interval*2, so
// a single missed reconcile does not immediately expire the entry.
func (m *Manager) Push(ctx context.Context, service, addr string) error {
	return m.registry.Push(ctx, service, addr, m.cfg.Interval*2)
}

// SpawnPush runs Push forever, logging any error, sleeping Interval
// between attempts, until ctx is cancelled.
func (m *Manager) SpawnPush(ctx context.Context, service, addr string) {
	for {
		if err := m.Push(ctx, service, addr); err != nil {
			log.Printf("drpc: balance manager: push: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.Interval):
		}
	}
}

// Call finds the pool for service, selects a client per the configured
// strategy (from is the service name, so Hash selection is stable per
// service), and delegates to that client's Call.
func Call[Arg, Resp any](m *Manager, service, method string, arg Arg) (Resp, error) {
	const op = errors.Op("balance_manager_call")

	var zero Resp

	m.mu.RLock()
	pool, ok := m.clients[service]
	m.mu.RUnlock()
	if !ok {
		return zero, errors.E(op, errors.Str("no service '"+service+"' find!"))
	}

	h, ok := pool.DoBalance(m.cfg.Balance, service)
	if !ok {
		return zero, errors.E(op, errors.Str("no service '"+service+"' find!"))
	}
	defer h.Release()

	resp, err := client.Call[Arg, Resp](h.Client, method, arg)
	if err != nil {
		return zero, errors.E(op, err)
	}
	return resp, nil
}
