// Package dialer resolves request targets and starts the non-blocking
// connects the event loop finishes.
package dialer

import (
	"context"
	"net"
)

type ResolveConfig struct {
	CustomDNSServer string
	Network         string            // one of "ip4", "ip6", default is "ip"
	StaticHosts     map[string]string // resembles /etc/hosts
}

func (c *ResolveConfig) Clone() *ResolveConfig {
	if c == nil {
		return nil
	}
	return &ResolveConfig{
		CustomDNSServer: c.CustomDNSServer,
		Network:         c.Network,
		StaticHosts:     c.StaticHosts,
	}
}

// this type should not be used outside this file.
// prevents non-custom DNS server contexts to iterate through all keys
type dnsServerCtx struct {
	context.Context
	server string
}

var dnsServerCtxKey = &dnsServerCtx{nil, "dns-server"} // non-nil pointer to any object, definitely unique

func (c dnsServerCtx) Value(key interface{}) interface{} {
	if key == dnsServerCtxKey {
		return c.server
	}
	return c.Context.Value(key)
}

var zeroDialer net.Dialer

var customServerResolver = net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
		if v, ok := ctx.Value(dnsServerCtxKey).(string); ok && v != "" {
			return zeroDialer.DialContext(ctx, network, v)
		}
		return zeroDialer.DialContext(ctx, network, address)
	},
}

// Dialer resolves hosts according to its ResolveConfig and opens sockets
// for them. The zero value resolves through the system configuration.
type Dialer struct {
	Resolve *ResolveConfig
}

// LookupIP resolves host, honoring the static host table and the custom
// DNS server when configured. Literal IP addresses short-circuit.
func (d *Dialer) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	cfg := d.Resolve
	network, dns := "ip", ""
	if cfg != nil {
		if static, ok := cfg.StaticHosts[host]; ok {
			if ip := net.ParseIP(static); ip != nil {
				return []net.IP{ip}, nil
			}
			host = static
		}
		if cfg.Network != "" {
			network = cfg.Network
		}
		dns = cfg.CustomDNSServer
	}
	return customServerResolver.LookupIP(dnsServerCtx{ctx, dns}, network, host)
}
