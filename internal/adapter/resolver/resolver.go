package resolver

import (
	"context"
	"fmt"
	"net"

	"github.com/mrenfro/conduit/internal/core/ports"
)

// NetResolver implements ports.Resolver against the standard library's
// *net.Resolver. DNS resolution is an out-of-core-scope external
// collaborator (spec.md §1); net is the named collaborator itself, not a
// third-party choice among alternatives.
type NetResolver struct {
	resolver *net.Resolver
}

// New returns a NetResolver using the default Go resolver.
func New() *NetResolver {
	return &NetResolver{resolver: net.DefaultResolver}
}

// ErrNoAddresses is returned when DNS resolution succeeds but yields no
// usable address, which spec.md §7 treats identically to a lookup failure.
var ErrNoAddresses = fmt.Errorf("resolver: no addresses found")

func (r *NetResolver) Resolve(ctx context.Context, host, port string) ([]ports.Endpoint, error) {
	addrs, err := r.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolver: lookup %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, ErrNoAddresses
	}

	eps := make([]ports.Endpoint, 0, len(addrs))
	for _, a := range addrs {
		network := "tcp4"
		if a.IP.To4() == nil {
			network = "tcp6"
		}
		eps = append(eps, ports.Endpoint{
			Network: network,
			Address: net.JoinHostPort(a.IP.String(), port),
		})
	}
	return eps, nil
}
