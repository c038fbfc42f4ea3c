package auth

import (
	"testing"
	"time"
)

func BenchmarkIssueToken(b *testing.B) {
	tm, err := NewTokenManager(testConfig().JWT)
	if err != nil {
		b.Fatal(err)
	}
	user := testUser()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := tm.IssueToken(user, user.Roles, 15*time.Minute); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseClaims(b *testing.B) {
	tm, err := NewTokenManager(testConfig().JWT)
	if err != nil {
		b.Fatal(err)
	}
	user := testUser()
	token, err := tm.IssueToken(user, user.Roles, 15*time.Minute)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		if _, err := tm.ParseClaims(token); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerifyPassword(b *testing.B) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if !VerifyPassword("s3cret-password", hash) {
			b.Fatal("password did not verify")
		}
	}
}
