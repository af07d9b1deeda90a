// etcd-backed RegistryCenter.
//
// Each live address is stored under key /drpc/{service}/{addr}. Push
// grants a TTL lease and puts the key under that lease, so a crashed
// server's entries expire on their own instead of lingering as ghosts.
// Pull lists every key under /drpc/ and groups addresses by service.
package registry

import (
	"context"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/spiral/errors"
)

const etcdPrefix = "/drpc/"

// EtcdCenter implements Center using etcd v3.
type EtcdCenter struct {
	client *clientv3.Client
}

// NewEtcdCenter connects to the given etcd endpoints.
func NewEtcdCenter(endpoints []string) (*EtcdCenter, error) {
	const op = errors.Op("etcd_center_new")

	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &EtcdCenter{client: c}, nil
}

// Push grants a lease for ttl and puts /drpc/{service}/{addr} under it, so
// an entry whose owner stops pushing expires on its own.
func (c *EtcdCenter) Push(ctx context.Context, service, addr string, ttl time.Duration) error {
	const op = errors.Op("etcd_center_push")

	lease, err := c.client.Grant(ctx, int64(ttl.Seconds()))
	if err != nil {
		return errors.E(op, err)
	}

	key := etcdPrefix + service + "/" + addr
	if _, err := c.client.Put(ctx, key, addr, clientv3.WithLease(lease.ID)); err != nil {
		return errors.E(op, err)
	}
	return nil
}

// Pull lists every key under the drpc prefix and groups addresses by the
// service name segment of the key.
func (c *EtcdCenter) Pull(ctx context.Context) (map[string][]string, error) {
	const op = errors.Op("etcd_center_pull")

	resp, err := c.client.Get(ctx, etcdPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.E(op, err)
	}

	fresh := make(map[string][]string)
	for _, kv := range resp.Kvs {
		rest := strings.TrimPrefix(string(kv.Key), etcdPrefix)
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			continue
		}
		service, addr := parts[0], parts[1]
		fresh[service] = append(fresh[service], addr)
	}
	return fresh, nil
}
