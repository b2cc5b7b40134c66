package services

import (
	"testing"

	"moneta/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("Alice@Example.com", "supersecret", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected a generated user ID")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
		if user.Password == "supersecret" {
			t.Error("expected password to be hashed")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("dup@example.com", "supersecret", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("DUP@example.com", "other", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("", "supersecret", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_resets_counters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created, err := svc.CreateUser("login@example.com", "supersecret", "", "")
		testutil.AssertNoError(t, err)

		// One failed attempt first.
		_, err = svc.AttemptLogin("login@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		user, err := svc.AttemptLogin("login@example.com", "supersecret")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Error("expected the created user back")
		}
		if user.FailedLoginAttempts != 0 {
			t.Errorf("expected counter reset, got %d", user.FailedLoginAttempts)
		}
		if user.LastLoginAt == nil {
			t.Error("expected last_login_at set")
		}
	})

	t.Run("locks_after_repeated_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("lock@example.com", "supersecret", "", "")
		testutil.AssertNoError(t, err)

		for i := 0; i < maxFailedLogins; i++ {
			_, err = svc.AttemptLogin("lock@example.com", "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		// Even the correct password is rejected while locked.
		_, err = svc.AttemptLogin("lock@example.com", "supersecret")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("unknown_email_is_invalid_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("nobody@example.com", "whatever")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("token@example.com", "supersecret", "", "")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "abc123"))

	hash, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "abc123" {
		t.Errorf("expected stored hash back, got %q", hash)
	}

	// Rotation overwrites.
	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "def456"))
	hash, err = svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "def456" {
		t.Errorf("expected rotated hash, got %q", hash)
	}
}
