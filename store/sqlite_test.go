package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := newSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return store
}

func testUser() *User {
	return &User{
		Subject: "auth0|123456789",
		Email:   "test@example.com",
		Name:    "Test User",
		Picture: "https://example.com/picture.jpg",
	}
}

func TestUpsertUser(t *testing.T) {
	store := setupTestDB(t)

	user := testUser()
	id, err := store.UpsertUser(user)
	if err != nil {
		t.Fatalf("Failed to upsert user: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected positive user ID, got %d", id)
	}

	user.Name = "Renamed User"
	sameID, err := store.UpsertUser(user)
	if err != nil {
		t.Fatalf("Failed to upsert existing user: %v", err)
	}
	if sameID != id {
		t.Errorf("Expected upsert to keep ID %d, got %d", id, sameID)
	}

	got, err := store.UserBySubject(user.Subject)
	if err != nil {
		t.Fatalf("Failed to get user by subject: %v", err)
	}
	if got.Name != "Renamed User" {
		t.Errorf("Expected refreshed name, got %q", got.Name)
	}
}

func TestUserBySubject(t *testing.T) {
	store := setupTestDB(t)

	user := testUser()
	id, err := store.UpsertUser(user)
	if err != nil {
		t.Fatalf("Failed to upsert user: %v", err)
	}

	got, err := store.UserBySubject(user.Subject)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if got.ID != id {
		t.Errorf("Expected user ID %d, got %d", id, got.ID)
	}
	if got.Email != user.Email {
		t.Errorf("Expected email %q, got %q", user.Email, got.Email)
	}

	_, err = store.UserBySubject("auth0|does-not-exist")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	store := setupTestDB(t)

	id, err := store.UpsertUser(testUser())
	if err != nil {
		t.Fatalf("Failed to upsert user: %v", err)
	}

	if err := store.DeleteUser(id); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	if err := store.DeleteUser(id); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound deleting twice, got %v", err)
	}
}

func TestCreateSession(t *testing.T) {
	store := setupTestDB(t)

	userID, err := store.UpsertUser(testUser())
	if err != nil {
		t.Fatalf("Failed to upsert user: %v", err)
	}

	expiresAt := time.Now().Add(time.Hour).Unix()
	session, err := store.CreateSession("session-id", userID, expiresAt)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if session.UserID != userID {
		t.Errorf("Expected user ID %d, got %d", userID, session.UserID)
	}
	if session.ExpiresAt != expiresAt {
		t.Errorf("Expected expiry %d, got %d", expiresAt, session.ExpiresAt)
	}

	_, err = store.CreateSession("orphan", 999999, expiresAt)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for missing user, got %v", err)
	}
}

func TestSessionAndUserBySessionID(t *testing.T) {
	store := setupTestDB(t)

	user := testUser()
	userID, err := store.UpsertUser(user)
	if err != nil {
		t.Fatalf("Failed to upsert user: %v", err)
	}

	expiresAt := time.Now().Add(time.Hour).Unix()
	if _, err := store.CreateSession("session-id", userID, expiresAt); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	session, got, err := store.SessionAndUserBySessionID("session-id")
	if err != nil {
		t.Fatalf("Failed to get session and user: %v", err)
	}
	if session.ID != "session-id" {
		t.Errorf("Expected session ID %q, got %q", "session-id", session.ID)
	}
	if got.Subject != user.Subject {
		t.Errorf("Expected subject %q, got %q", user.Subject, got.Subject)
	}

	_, _, err = store.SessionAndUserBySessionID("missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	store := setupTestDB(t)

	userID, err := store.UpsertUser(testUser())
	if err != nil {
		t.Fatalf("Failed to upsert user: %v", err)
	}

	expiresAt := time.Now().Add(time.Hour).Unix()
	if _, err := store.CreateSession("s1", userID, expiresAt); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if _, err := store.CreateSession("s2", userID, expiresAt); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if err := store.DeleteSessionBySessionID("s1"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, _, err := store.SessionAndUserBySessionID("s1"); err == nil {
		t.Error("Expected error for deleted session")
	}

	if err := store.DeleteSessionByUserID(userID); err != nil {
		t.Fatalf("Failed to delete sessions by user: %v", err)
	}
	if _, _, err := store.SessionAndUserBySessionID("s2"); err == nil {
		t.Error("Expected error for deleted session")
	}
}

func TestRefreshSession(t *testing.T) {
	store := setupTestDB(t)

	userID, err := store.UpsertUser(testUser())
	if err != nil {
		t.Fatalf("Failed to upsert user: %v", err)
	}

	expiresAt := time.Now().Add(time.Hour).Unix()
	if _, err := store.CreateSession("session-id", userID, expiresAt); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	newExpiresAt := time.Now().Add(48 * time.Hour).Unix()
	if err := store.RefreshSession("session-id", newExpiresAt); err != nil {
		t.Fatalf("Failed to refresh session: %v", err)
	}

	session, _, err := store.SessionAndUserBySessionID("session-id")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if session.ExpiresAt != newExpiresAt {
		t.Errorf("Expected expiry %d, got %d", newExpiresAt, session.ExpiresAt)
	}
}
