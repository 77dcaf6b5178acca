package models

import "testing"

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPasswordHash("s3cret-pass", hash) {
		t.Fatalf("expected password to match its hash")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatalf("expected mismatch for wrong password")
	}
}

func TestCreateUserHashesAndValidates(t *testing.T) {
	u, err := CreateUser("Alice Example", "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Password == "s3cret-pass" {
		t.Fatalf("password stored in plain text")
	}
	if !CheckPasswordHash("s3cret-pass", u.Password) {
		t.Fatalf("stored hash does not match the password")
	}
	if u.Role != ROLE_USER || u.Status != STATUS_INACTIVE {
		t.Fatalf("unexpected defaults: role=%s status=%s", u.Role, u.Status)
	}
}

func TestCreateUserRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short name", "ab", "alice@example.com", "s3cret-pass"},
		{"bad email", "Alice Example", "not-an-email", "s3cret-pass"},
	}
	for _, tc := range cases {
		if _, err := CreateUser(tc.username, tc.email, tc.password); err == nil {
			t.Fatalf("%s: expected validation to fail", tc.name)
		}
	}
}
