package registry

import (
	"sync"
	"time"

	"github.com/cuemby/relay/pkg/types"
)

// Registry is an in-process service discovery table: named services,
// each with an ordered list of registered endpoints. Stale entries are
// purged by Cleanup on demand, never proactively.
type Registry struct {
	mu       sync.RWMutex
	services map[string][]*types.ServiceInstance
}

// New creates an empty service registry
func New() *Registry {
	return &Registry{
		services: make(map[string][]*types.ServiceInstance),
	}
}

// Register adds an endpoint for a service, or refreshes it if already
// present. Registration order is preserved.
func (r *Registry) Register(service, endpoint string, metadata map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, inst := range r.services[service] {
		if inst.Endpoint == endpoint {
			inst.Metadata = metadata
			inst.LastSeen = now
			return
		}
	}

	r.services[service] = append(r.services[service], &types.ServiceInstance{
		Service:  service,
		Endpoint: endpoint,
		Metadata: metadata,
		LastSeen: now,
	})
}

// Deregister removes an endpoint from a service
func (r *Registry) Deregister(service, endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	instances := r.services[service]
	for i, inst := range instances {
		if inst.Endpoint == endpoint {
			r.services[service] = append(instances[:i], instances[i+1:]...)
			break
		}
	}
	if len(r.services[service]) == 0 {
		delete(r.services, service)
	}
}

// Heartbeat refreshes an endpoint's last-seen timestamp. Returns false
// if the endpoint is not registered.
func (r *Registry) Heartbeat(service, endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inst := range r.services[service] {
		if inst.Endpoint == endpoint {
			inst.LastSeen = time.Now()
			return true
		}
	}
	return false
}

// Endpoints returns a service's endpoints in registration order
func (r *Registry) Endpoints(service string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	endpoints := make([]string, 0, len(r.services[service]))
	for _, inst := range r.services[service] {
		endpoints = append(endpoints, inst.Endpoint)
	}
	return endpoints
}

// Instances returns copies of a service's registration records
func (r *Registry) Instances(service string) []types.ServiceInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]types.ServiceInstance, 0, len(r.services[service]))
	for _, inst := range r.services[service] {
		instances = append(instances, *inst)
	}
	return instances
}

// Cleanup purges entries whose last-seen timestamp is older than maxAge
// and returns the number purged
func (r *Registry) Cleanup(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	purged := 0

	for service, instances := range r.services {
		kept := instances[:0]
		for _, inst := range instances {
			if inst.LastSeen.Before(cutoff) {
				purged++
				continue
			}
			kept = append(kept, inst)
		}
		if len(kept) == 0 {
			delete(r.services, service)
		} else {
			r.services[service] = kept
		}
	}
	return purged
}
