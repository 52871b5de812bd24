package version

import (
	"errors"
	"strings"
	"testing"
)

// withBuild подменяет глобальные метаданные сборки на время теста.
func withBuild(t *testing.T, date, commit string) {
	t.Helper()
	oldDate, oldCommit := BuildDate, BuildCommit
	t.Cleanup(func() { BuildDate, BuildCommit = oldDate, oldCommit })
	BuildDate, BuildCommit = date, commit
}

func TestBuildNumber(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		want    int
		fail    bool
		wantErr error
	}{
		{name: "first release", date: "2025-12-04", want: 0},
		{name: "next day", date: "2025-12-05", want: 1},
		{name: "one year later", date: "2026-12-04", want: 365},
		{name: "across leap years", date: "2032-12-04", want: 2557},
		{name: "empty date", date: "", fail: true, wantErr: ErrNoBuildDate},
		{name: "before release", date: "2025-12-03", fail: true, wantErr: ErrEarlyBuild},
		{name: "garbage", date: "yesterday", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.date, "")

			got, err := BuildNumber()
			if tt.fail {
				if err == nil {
					t.Fatalf("BuildNumber() = %d, want error", got)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("BuildNumber() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildNumber() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	withBuild(t, "", "")
	b := Info()
	if !b.Dev || b.Reason == "" || b.Protocol != Protocol {
		t.Errorf("dev Info() = %+v", b)
	}

	withBuild(t, "2025-12-14", "abc123")
	b = Info()
	if b.Dev || b.Number != 10 || b.Product != Product {
		t.Errorf("release Info() = %+v", b)
	}
	s := String()
	for _, part := range []string{"build 10", "relay protocol v1", "commit abc123"} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "", "")
	if got := UserAgent(); got != "boomkart/dev relay/1" {
		t.Errorf("UserAgent() = %q, want boomkart/dev relay/1", got)
	}

	withBuild(t, "2025-12-05", "")
	if got := UserAgent(); got != "boomkart/1 relay/1" {
		t.Errorf("UserAgent() = %q, want boomkart/1 relay/1", got)
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		agent string
		proto int
		found bool
		ok    bool
	}{
		{UserAgent(), Protocol, true, true},
		{"boomkart/40 relay/2", 2, true, false},
		{"boomkart/40 relay/x", 0, false, true},
		{"Mozilla/5.0 (X11; Linux x86_64)", 0, false, true},
		{"", 0, false, true},
	}
	for _, tt := range tests {
		proto, found := PeerProtocol(tt.agent)
		if proto != tt.proto || found != tt.found {
			t.Errorf("PeerProtocol(%q) = %d %v, want %d %v", tt.agent, proto, found, tt.proto, tt.found)
		}
		if got := Compatible(tt.agent); got != tt.ok {
			t.Errorf("Compatible(%q) = %v, want %v", tt.agent, got, tt.ok)
		}
	}
}
