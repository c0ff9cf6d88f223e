package collector

import (
	"fmt"
	"net"
	"testing"
)

func TestTruncateIPToPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"198.51.100.37", "198.51.100.32/28"},
		{"198.51.100.47", "198.51.100.32/28"},
		{"198.51.100.48", "198.51.100.48/28"},
		{"192.0.2.255", "192.0.2.240/28"},
		{"10.0.0.1", "10.0.0.0/28"},
		{"203.0.113.77", "203.0.113.64/28"},
		{"2001:db8:aa:bbcc:dd::1", "2001:db8:aa:bb00::/56"},
		{"2001:db8::1", "2001:db8::/56"},
		{"2606:4700:4700::1111", "2606:4700:4700::/56"},
		{"::1", "::/56"},
	}

	for _, tc := range tests {
		got, err := TruncateIPToPrefix(net.ParseIP(tc.in))
		if err != nil {
			t.Errorf("TruncateIPToPrefix(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("TruncateIPToPrefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// Every address in a /28 collapses to the same prefix, so the low host
// bits never survive into a log record.
func TestTruncateIPToPrefix_HostBits(t *testing.T) {
	for i := 0; i < 256; i++ {
		ip := net.IPv4(198, 51, 100, byte(i))
		want := fmt.Sprintf("198.51.100.%d/28", i&0xF0)

		got, err := TruncateIPToPrefix(ip)
		if err != nil {
			t.Fatalf("TruncateIPToPrefix(%v) returned error: %v", ip, err)
		}
		if got != want {
			t.Errorf("TruncateIPToPrefix(%v) = %q, want %q", ip, got, want)
		}
	}
}

func TestTruncateIPToPrefix_Invalid(t *testing.T) {
	if _, err := TruncateIPToPrefix(nil); err == nil {
		t.Errorf("TruncateIPToPrefix(nil) did not return an error")
	}
	if _, err := TruncateIPToPrefix(net.IP{198, 51}); err == nil {
		t.Errorf("TruncateIPToPrefix(short address) did not return an error")
	}
}
