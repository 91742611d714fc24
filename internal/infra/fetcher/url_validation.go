// Package fetcher retrieves full article text for items whose feed summary is too short.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
)

// checkTarget rejects anything but http(s) URLs with a host. With
// denyPrivate set, the host must not be, or resolve to, a loopback, private,
// link-local or unspecified address.
func checkTarget(ctx context.Context, raw string, denyPrivate bool) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if !denyPrivate {
		return nil
	}

	addrs, err := resolve(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrInvalidURL, host, err)
	}
	for _, addr := range addrs {
		if isPrivateAddr(addr) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, host, addr)
		}
	}
	return nil
}

func resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
