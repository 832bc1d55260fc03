package smtp

import (
	"encoding/base64"
	"testing"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestAuthenticator_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{name: "both set", username: "user", password: "pass", want: true},
		{name: "empty username", username: "", password: "pass", want: false},
		{name: "empty password", username: "user", password: "", want: false},
		{name: "both empty", username: "", password: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			auth := NewAuthenticator(tt.username, tt.password)
			if got := auth.Enabled(); got != tt.want {
				t.Errorf("Enabled(): got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthenticator_VerifyPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		encoded string
		wantErr bool
	}{
		{name: "valid credentials", encoded: b64("\x00testuser\x00testpass"), wantErr: false},
		{name: "valid with authzid", encoded: b64("admin\x00testuser\x00testpass"), wantErr: false},
		{name: "wrong password", encoded: b64("\x00testuser\x00wrongpass"), wantErr: true},
		{name: "wrong username", encoded: b64("\x00wronguser\x00testpass"), wantErr: true},
		{name: "invalid base64", encoded: "not-valid-base64!!!", wantErr: true},
		{name: "missing separator", encoded: b64("testuser\x00testpass"), wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			auth := NewAuthenticator("testuser", "testpass")
			err := auth.VerifyPlain(tt.encoded)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAuthenticator_VerifyLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		encodedUser string
		encodedPass string
		wantErr     bool
	}{
		{name: "valid credentials", encodedUser: b64("testuser"), encodedPass: b64("testpass"), wantErr: false},
		{name: "wrong password", encodedUser: b64("testuser"), encodedPass: b64("wrongpass"), wantErr: true},
		{name: "wrong username", encodedUser: b64("wronguser"), encodedPass: b64("testpass"), wantErr: true},
		{name: "invalid base64 username", encodedUser: "invalid!!!", encodedPass: b64("testpass"), wantErr: true},
		{name: "invalid base64 password", encodedUser: b64("testuser"), encodedPass: "invalid!!!", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			auth := NewAuthenticator("testuser", "testpass")
			err := auth.VerifyLogin(tt.encodedUser, tt.encodedPass)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
