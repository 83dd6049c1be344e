package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/server/config"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, rm *fakeRepoManager) (*UserService, func()) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	s := NewUserService(db, rm, cfg, newTestLogger(t))
	return s, func() {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func salt() []byte { return make([]byte, saltSize) }

func TestValidPhoneNumber(t *testing.T) {
	assert.True(t, ValidPhoneNumber("+15550001"))
	assert.True(t, ValidPhoneNumber("+442071838750"))
	assert.False(t, ValidPhoneNumber("15550001"))
	assert.False(t, ValidPhoneNumber("+0123456"))
	assert.False(t, ValidPhoneNumber("+1 555 0001"))
}

func TestGetSalt(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.byPhone["+15550001"] = &models.User{ID: "u1", PhoneNumber: "+15550001", Salt: []byte("stored")}
	s, _ := newUserService(t, rm)
	ctx := context.Background()

	got, err := s.GetSalt(ctx, "+15550001")
	require.NoError(t, err)
	assert.Equal(t, []byte("stored"), got)

	got, err = s.GetSalt(ctx, "+15550002")
	require.NoError(t, err)
	assert.Len(t, got, saltSize)

	again, err := s.GetSalt(ctx, "+15550002")
	require.NoError(t, err)
	assert.Equal(t, got, again, "unknown numbers must get a stable salt")

	other, err := s.GetSalt(ctx, "+15550003")
	require.NoError(t, err)
	assert.NotEqual(t, got, other)

	_, err = s.GetSalt(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorValidation)

	rm.u.getErr = errors.New("db down")
	_, err = s.GetSalt(ctx, "+15550001")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestSignIn_RegistersThenLogsIn(t *testing.T) {
	rm := newFakeRepoManager()
	s, _ := newUserService(t, rm)
	ctx := context.Background()

	first, err := s.SignIn(ctx, "+15550001", salt(), []byte("verifier"))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.Tokens.AccessToken)
	assert.NotEmpty(t, first.Tokens.RefreshToken)

	rm.d.put(common.CollectionPublic, first.UID, map[string]any{"display_name": "Ann"})

	second, err := s.SignIn(ctx, "+15550001", nil, []byte("verifier"))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.UID, second.UID)
	assert.Equal(t, "Ann", second.DisplayName)

	uid, err := s.Authenticate(second.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, first.UID, uid)
}

func TestSignIn_Failures(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.byPhone["+15550001"] = &models.User{ID: "u1", PhoneNumber: "+15550001", Verifier: []byte("right")}
	rm.u.byPhone["+15550009"] = &models.User{ID: "u9", PhoneNumber: "+15550009", Verifier: []byte("right"), Disabled: true}
	s, _ := newUserService(t, rm)
	ctx := context.Background()

	tests := []struct {
		name     string
		phone    string
		salt     []byte
		verifier []byte
		want     error
	}{
		{"bad phone", "555", salt(), []byte("v"), common.ErrorValidation},
		{"empty verifier", "+15550001", salt(), nil, common.ErrorValidation},
		{"short salt on register", "+15550002", []byte("x"), []byte("v"), common.ErrorValidation},
		{"wrong verifier", "+15550001", nil, []byte("wrong"), common.ErrorUnauthorized},
		{"disabled", "+15550009", nil, []byte("right"), common.ErrAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignIn(ctx, tt.phone, tt.salt, tt.verifier)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignIn_StoreTokenFails(t *testing.T) {
	rm := newFakeRepoManager()
	rm.r.createErr = errors.New("boom")
	s, _ := newUserService(t, rm)

	_, err := s.SignIn(context.Background(), "+15550001", salt(), []byte("v"))
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefreshToken_Rotates(t *testing.T) {
	rm := newFakeRepoManager()
	s, expectTx := newUserService(t, rm)
	ctx := context.Background()

	res, err := s.SignIn(ctx, "+15550001", salt(), []byte("v"))
	require.NoError(t, err)

	expectTx()
	pair, err := s.RefreshToken(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.Tokens.RefreshToken, pair.RefreshToken)

	_, err = rm.r.Find(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorNotFound, "old token revoked")

	_, err = s.RefreshToken(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshToken_ExpiredAndDisabled(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.byPhone["+15550001"] = &models.User{ID: "u1", PhoneNumber: "+15550001", Disabled: true}
	rm.r.tokens["old"] = &models.RefreshToken{UserID: "u1", Token: "old", Expires: time.Now().Add(-time.Minute)}
	rm.r.tokens["live"] = &models.RefreshToken{UserID: "u1", Token: "live", Expires: time.Now().Add(time.Minute)}
	s, _ := newUserService(t, rm)

	_, err := s.RefreshToken(context.Background(), "old")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	_, err = s.RefreshToken(context.Background(), "live")
	assert.ErrorIs(t, err, common.ErrAccountDisabled)
}

func TestRefreshToken_DeleteFailsRollsBack(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.byPhone["+15550001"] = &models.User{ID: "u1", PhoneNumber: "+15550001"}
	rm.r.tokens["live"] = &models.RefreshToken{UserID: "u1", Token: "live", Expires: time.Now().Add(time.Minute)}
	rm.r.deleteErr = errors.New("locked")

	db, mock := newSQLMockDB(t)
	s := NewUserService(db, rm, &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}, newTestLogger(t))
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.RefreshToken(context.Background(), "live")
	assert.ErrorContains(t, err, "locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupUser(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.byPhone["+15550001"] = &models.User{ID: "u1", PhoneNumber: "+15550001"}
	rm.u.byPhone["+15550009"] = &models.User{ID: "u9", PhoneNumber: "+15550009", Disabled: true}
	rm.d.put(common.CollectionPublic, "u1", map[string]any{"display_name": "Ann"})
	s, _ := newUserService(t, rm)
	ctx := context.Background()

	u, name, err := s.LookupUser(ctx, "+15550001")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Ann", name)

	_, _, err = s.LookupUser(ctx, "+15550002")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, _, err = s.LookupUser(ctx, "+15550009")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPurgeExpiredTokens(t *testing.T) {
	rm := newFakeRepoManager()
	rm.r.tokens["a"] = &models.RefreshToken{Expires: time.Now().Add(-time.Hour)}
	rm.r.tokens["b"] = &models.RefreshToken{Expires: time.Now().Add(time.Hour)}
	s, _ := newUserService(t, rm)

	n, err := s.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
