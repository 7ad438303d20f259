package domain

import (
	"testing"
	"time"
)

func TestNextExpiry(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want string
	}{
		{name: "mid month", now: "2024-03-15", want: "2024-04-15"},
		{name: "jan 31 leap year clamps to feb 29", now: "2024-01-31", want: "2024-02-29"},
		{name: "jan 31 non leap year clamps to feb 28", now: "2025-01-31", want: "2025-02-28"},
		{name: "mar 31 clamps to apr 30", now: "2024-03-31", want: "2024-04-30"},
		{name: "december rolls into january", now: "2024-12-10", want: "2025-01-10"},
		{name: "dec 31 keeps jan 31", now: "2024-12-31", want: "2025-01-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.Parse("2006-01-02", tt.now)
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}
			got := NextExpiry(now)
			if got.Format("2006-01-02") != tt.want {
				t.Fatalf("NextExpiry(%s) = %s, want %s", tt.now, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestNextExpiryKeepsClock(t *testing.T) {
	now := time.Date(2024, 5, 20, 14, 30, 45, 0, time.UTC)
	got := NextExpiry(now)
	want := time.Date(2024, 6, 20, 14, 30, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMemberIsActive(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	m := &Member{Status: StatusActive, ExpiresAt: now.Add(time.Hour)}
	if !m.IsActive(now) {
		t.Fatal("expected active member with future expiry to be active")
	}

	m.ExpiresAt = now.Add(-time.Hour)
	if m.IsActive(now) {
		t.Fatal("expected lapsed member to be inactive")
	}

	m = &Member{Status: StatusExpired, ExpiresAt: now.Add(time.Hour)}
	if m.IsActive(now) {
		t.Fatal("expected expired member to be inactive regardless of timestamp")
	}
}
