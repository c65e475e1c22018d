package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "ana@carsu.edu.ph", "university_member")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	claims, err := ValidateToken("secret", token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Email != "ana@carsu.edu.ph" {
		t.Errorf("Email = %q, want %q", claims.Email, "ana@carsu.edu.ph")
	}
	if claims.Role != "university_member" {
		t.Errorf("Role = %q, want %q", claims.Role, "university_member")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "ana@carsu.edu.ph", "university_member")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if _, err := ValidateToken("other", token); err == nil {
		t.Error("expected validation to fail with the wrong secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken("secret", "not.a.token"); err == nil {
		t.Error("expected validation to fail")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !CheckPassword(hash, "hunter2") {
		t.Error("expected password to match its hash")
	}
	if CheckPassword(hash, "hunter3") {
		t.Error("expected wrong password to be rejected")
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email, domain string
		want          bool
	}{
		{"ana@carsu.edu.ph", "carsu.edu.ph", true},
		{"ANA@CARSU.EDU.PH", "carsu.edu.ph", true},
		{"ana@gmail.com", "carsu.edu.ph", false},
		{"ana@", "carsu.edu.ph", false},
		{"nodomain", "carsu.edu.ph", false},
		{"ana@anywhere.org", "", true},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email, tt.domain); got != tt.want {
			t.Errorf("ValidEmail(%q, %q) = %v, want %v", tt.email, tt.domain, got, tt.want)
		}
	}
}
