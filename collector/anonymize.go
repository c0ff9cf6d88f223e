package collector

import (
	"fmt"
	"net"
)

// Prefix widths clients are truncated to before anything is logged. A /28
// or /56 identifies a network, not a subscriber.
const (
	ipv4PrefixBits = 28
	ipv6PrefixBits = 56
)

// TruncateIPToPrefix masks a client address to its logging prefix and
// renders the network in CIDR notation, such as "198.51.100.32/28". IPv4
// addresses truncate to /28 and IPv6 addresses to /56. An address that
// cannot be masked (nil or oddly sized) is an invariant violation and
// returns an error.
func TruncateIPToPrefix(ip net.IP) (string, error) {
	if ip4 := ip.To4(); ip4 != nil {
		masked := ip4.Mask(net.CIDRMask(ipv4PrefixBits, 32))
		if masked == nil {
			return "", fmt.Errorf("mask %v to /%d: invalid address", ip, ipv4PrefixBits)
		}
		return fmt.Sprintf("%s/%d", masked, ipv4PrefixBits), nil
	}

	if ip16 := ip.To16(); ip16 != nil {
		masked := ip16.Mask(net.CIDRMask(ipv6PrefixBits, 128))
		if masked == nil {
			return "", fmt.Errorf("mask %v to /%d: invalid address", ip, ipv6PrefixBits)
		}
		return fmt.Sprintf("%s/%d", masked, ipv6PrefixBits), nil
	}

	return "", fmt.Errorf("truncate %v: not an IPv4 or IPv6 address", ip)
}
