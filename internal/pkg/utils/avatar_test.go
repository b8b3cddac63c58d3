package utils

import (
	"strings"
	"testing"
)

func TestGravatarURLNormalizesEmail(t *testing.T) {
	a := GravatarURL("  Model@Example.COM ", 0)
	b := GravatarURL("model@example.com", 200)
	if a != b {
		t.Fatalf("expected normalized emails to hash identically: %s vs %s", a, b)
	}
	if !strings.Contains(a, "s=200") {
		t.Fatalf("expected default size 200, got %s", a)
	}
}

func TestAvatarURLPrefersUploadedAvatar(t *testing.T) {
	got := AvatarURL("https://cdn.modelboard.dev/a.png", "model@example.com", 80)
	if got != "https://cdn.modelboard.dev/a.png" {
		t.Fatalf("expected uploaded avatar, got %s", got)
	}

	got = AvatarURL("", "model@example.com", 80)
	if !strings.HasPrefix(got, "https://www.gravatar.com/avatar/") {
		t.Fatalf("expected gravatar fallback, got %s", got)
	}
}
