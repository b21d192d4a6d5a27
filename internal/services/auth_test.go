package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	authrepo "github.com/cropsense/cropsense-backend/internal/data/repos/auth"
	userrepo "github.com/cropsense/cropsense-backend/internal/data/repos/user"
	"github.com/cropsense/cropsense-backend/internal/domain"
	"github.com/cropsense/cropsense-backend/internal/pkg/ctxutil"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.UserToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	return NewAuthService(
		db, log,
		userrepo.NewUserRepo(db, log),
		authrepo.NewUserTokenRepo(db, log),
		"test-secret",
		time.Hour,
		24*time.Hour,
	)
}

func TestRegisterLoginVerifyRoundtrip(t *testing.T) {
	as := newTestAuthService(t)
	ctx := context.Background()

	user := &domain.User{Email: "Farmer@Example.com", Password: "hunter22", Name: "F"}
	if err := as.RegisterUser(ctx, user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Password == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}

	access, refresh, err := as.LoginUser(ctx, "farmer@example.com", "hunter22")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatalf("empty tokens returned")
	}

	verified, err := as.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(verified)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("verified identity mismatch: %+v", rd)
	}
}

func TestRegisterValidation(t *testing.T) {
	as := newTestAuthService(t)
	ctx := context.Background()

	var invalid InvalidInputError
	if err := as.RegisterUser(ctx, &domain.User{Email: "", Password: "pw"}); !errors.As(err, &invalid) {
		t.Fatalf("missing email must be rejected as invalid input, got %v", err)
	}
	if err := as.RegisterUser(ctx, &domain.User{Email: "a@b.c", Password: ""}); !errors.As(err, &invalid) {
		t.Fatalf("missing password must be rejected as invalid input, got %v", err)
	}

	if err := as.RegisterUser(ctx, &domain.User{Email: "dup@b.c", Password: "pw"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := as.RegisterUser(ctx, &domain.User{Email: "dup@b.c", Password: "pw"}); !errors.As(err, &invalid) {
		t.Fatalf("duplicate email must be rejected as invalid input, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	as := newTestAuthService(t)
	ctx := context.Background()

	if err := as.RegisterUser(ctx, &domain.User{Email: "a@b.c", Password: "correct"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if _, _, err := as.LoginUser(ctx, "a@b.c", "wrong"); err == nil {
		t.Fatalf("wrong password must be rejected")
	}
	if _, _, err := as.LoginUser(ctx, "nobody@b.c", "correct"); err == nil {
		t.Fatalf("unknown email must be rejected")
	}
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	as := newTestAuthService(t)
	ctx := context.Background()

	if _, err := as.SetContextFromToken(ctx, ""); err == nil {
		t.Fatalf("empty token must be rejected")
	}
	if _, err := as.SetContextFromToken(ctx, "not.a.jwt"); err == nil {
		t.Fatalf("malformed token must be rejected")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	as := newTestAuthService(t)
	ctx := context.Background()

	if err := as.RegisterUser(ctx, &domain.User{Email: "r@b.c", Password: "pw"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	_, refresh, err := as.LoginUser(ctx, "r@b.c", "pw")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	access2, refresh2, err := as.RefreshUser(ctx, refresh)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if access2 == "" || refresh2 == "" || refresh2 == refresh {
		t.Fatalf("refresh did not rotate tokens")
	}

	// The old refresh token is spent.
	if _, _, err := as.RefreshUser(ctx, refresh); err == nil {
		t.Fatalf("spent refresh token must be rejected")
	}
}

func TestLogoutDeletesToken(t *testing.T) {
	as := newTestAuthService(t)
	ctx := context.Background()

	if err := as.RegisterUser(ctx, &domain.User{Email: "l@b.c", Password: "pw"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	access, refresh, err := as.LoginUser(ctx, "l@b.c", "pw")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if err := as.LogoutUser(ctx, access); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}
	// Logout again is a no-op.
	if err := as.LogoutUser(ctx, access); err != nil {
		t.Fatalf("second LogoutUser: %v", err)
	}
	// The refresh token died with the session row.
	if _, _, err := as.RefreshUser(ctx, refresh); err == nil {
		t.Fatalf("refresh after logout must be rejected")
	}
}
