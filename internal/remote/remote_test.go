package remote

import (
	"net"
	"net/url"
	"testing"
)

func TestValidateRejectsPlainHTTPByDefault(t *testing.T) {
	f := &Fetcher{}
	u, _ := url.Parse("http://example.com/declarch.kdl")
	if err := f.validate(u); err == nil {
		t.Error("validate() should reject http without the insecure opt-in")
	}
}

func TestValidateAllowsPlainHTTPWithOptIn(t *testing.T) {
	f := &Fetcher{AllowInsecure: true}
	u, _ := url.Parse("http://127.0.0.1/declarch.kdl")
	if err := f.validate(u); err != nil {
		t.Errorf("validate() with opt-in should allow loopback http: %v", err)
	}
}

func TestValidateRejectsUnsupportedScheme(t *testing.T) {
	f := &Fetcher{}
	u, _ := url.Parse("ftp://example.com/x")
	if err := f.validate(u); err == nil {
		t.Error("validate() should reject non-http(s) schemes")
	}
}

func TestValidateRejectsPrivateIPLiteral(t *testing.T) {
	f := &Fetcher{}
	u, _ := url.Parse("https://192.168.1.5/x")
	if err := f.validate(u); err == nil {
		t.Error("validate() should reject a private IP literal host")
	}
}

func TestIsPrivateClassifiesKnownRanges(t *testing.T) {
	cases := map[string]bool{
		"10.0.0.1":       true,
		"172.16.0.5":     true,
		"192.168.1.1":    true,
		"127.0.0.1":      true,
		"169.254.1.1":    true,
		"8.8.8.8":        false,
		"1.1.1.1":        false,
		"2606:4700::1":   false,
		"fc00::1":        true,
	}
	for addr, want := range cases {
		ip := net.ParseIP(addr)
		if ip == nil {
			t.Fatalf("bad test IP %q", addr)
		}
		if got := isPrivate(ip); got != want {
			t.Errorf("isPrivate(%s) = %v, want %v", addr, got, want)
		}
	}
}
