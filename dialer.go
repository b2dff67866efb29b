package ahttp

import (
	"github.com/ahttp-dev/ahttp/internal/dialer"
)

// we need a dedicated resolver for customizing the DNS server used for
// resolving hostnames.
//
// the standard library didn't provide an intuitive way of setting DNS
// server addresses since it only follows the system configuration
// (e.g. /etc/resolv.conf), leaving us only one option of using
// [net.Resolver.Dial] hook with a Go Resolver.
//
// this part of code tries to take advantage of that only option as far
// as possible to provide a relatively intuitive configuration API.
type ResolveConfig = dialer.ResolveConfig
