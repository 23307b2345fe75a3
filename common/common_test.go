package common

import (
	"testing"
	"time"
)

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Duration(d) != 90*time.Second {
		t.Errorf("got %s, want 90s", time.Duration(d))
	}

	if err := d.UnmarshalText([]byte("-5s")); err == nil {
		t.Error("expected an error for a negative duration")
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected an error for a malformed duration")
	}
}

func TestFamilyUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    Family
		wantErr bool
	}{
		{"4", IPv4, false},
		{"v4", IPv4, false},
		{"IPv4", IPv4, false},
		{"6", IPv6, false},
		{"v6", IPv6, false},
		{"ipv6", IPv6, false},
		{"v5", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		var f Family
		err := f.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && f != tt.want {
			t.Errorf("UnmarshalText(%q) = %s, want %s", tt.in, f, tt.want)
		}
	}
}

func TestFamilyNetwork(t *testing.T) {
	if got := IPv4.Network("udp"); got != "udp4" {
		t.Errorf("IPv4 network = %s, want udp4", got)
	}
	if got := IPv6.Network("udp"); got != "udp6" {
		t.Errorf("IPv6 network = %s, want udp6", got)
	}
}

func TestWeakDecodeMap(t *testing.T) {
	type target struct {
		Family  Family   `mapstructure:"family"`
		Timeout Duration `mapstructure:"timeout"`
		Names   []string `mapstructure:"names"`
	}

	var out target
	err := WeakDecodeMap(map[string]any{
		"family":  "v6",
		"timeout": "30s",
		"names":   []any{"a", "b"},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Family != IPv6 {
		t.Errorf("Family = %s, want IPv6", out.Family)
	}
	if time.Duration(out.Timeout) != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", time.Duration(out.Timeout))
	}
	if len(out.Names) != 2 {
		t.Errorf("Names = %v, want two entries", out.Names)
	}
}
