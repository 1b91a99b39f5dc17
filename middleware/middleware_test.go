package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndValidateToken(t *testing.T) {
	token, err := IssueToken("alice", "student", "robotics", TokenTTL)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Login != "alice" || claims.Role != "student" || claims.ClubManager != "robotics" {
		t.Errorf("claims roundtrip: %+v", claims)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := IssueToken("alice", "student", "none", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateJWT(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestExtractTokenPrefersCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/events?token=fromquery", nil)
	r.Header.Set("Authorization", "Bearer fromheader")
	r.AddCookie(&http.Cookie{Name: "token", Value: "fromcookie"})

	if got := ExtractToken(r); got != "fromcookie" {
		t.Errorf("ExtractToken = %q, want cookie value", got)
	}
}

func TestExtractTokenHeaderOverQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/events?token=fromquery", nil)
	r.Header.Set("Authorization", "Bearer fromheader")

	if got := ExtractToken(r); got != "fromheader" {
		t.Errorf("ExtractToken = %q, want header value", got)
	}
}

func TestExtractTokenQueryFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/events?token=fromquery", nil)
	if got := ExtractToken(r); got != "fromquery" {
		t.Errorf("ExtractToken = %q, want query value", got)
	}
}

func TestNeedsRefresh(t *testing.T) {
	fresh, _ := IssueToken("alice", "student", "none", TokenTTL)
	claims, err := ValidateJWT(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if NeedsRefresh(claims, time.Now()) {
		t.Error("fresh token flagged for refresh")
	}

	nearExpiry, _ := IssueToken("alice", "student", "none", RefreshWindow/2)
	claims, err = ValidateJWT(nearExpiry)
	if err != nil {
		t.Fatal(err)
	}
	if !NeedsRefresh(claims, time.Now()) {
		t.Error("near-expiry token not flagged for refresh")
	}
}

func TestCapabilityPredicates(t *testing.T) {
	tests := []struct {
		role        string
		clubManager string
		club        string
		canManage   bool
		isAdmin     bool
	}{
		{"staff", "none", "robotics", true, true},
		{"student", "robotics", "robotics", true, true},
		{"student", "robotics", "chess", false, true},
		{"student", "none", "robotics", false, false},
		{"student", "", "robotics", false, false},
	}
	for _, tt := range tests {
		c := &Claims{Role: tt.role, ClubManager: tt.clubManager}
		if got := c.CanManageClub(tt.club); got != tt.canManage {
			t.Errorf("CanManageClub(%q) role=%s mgr=%s = %v, want %v", tt.club, tt.role, tt.clubManager, got, tt.canManage)
		}
		if got := c.IsAdmin(); got != tt.isAdmin {
			t.Errorf("IsAdmin role=%s mgr=%s = %v, want %v", tt.role, tt.clubManager, got, tt.isAdmin)
		}
	}
}
