package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/store"
	"github.com/dathealth/medsched/internal/api/store/drivers/sqlite"
	"github.com/dathealth/medsched/pkg/cryptox"
	"github.com/dathealth/medsched/pkg/httpx"
	"github.com/dathealth/medsched/pkg/idx"
	"github.com/dathealth/medsched/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const resetLinkBase = "https://app.example.com/reset-password?code="

// recordingNotifier captures notifications instead of delivering them.
type recordingNotifier struct {
	mu         sync.Mutex
	welcomes   []string
	resetLinks []string
	updated    []string
}

func (n *recordingNotifier) Welcome(ctx context.Context, user domain.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, user.Email)
}

func (n *recordingNotifier) PasswordReset(ctx context.Context, user domain.User, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetLinks = append(n.resetLinks, link)
}

func (n *recordingNotifier) PasswordUpdated(ctx context.Context, user domain.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, user.Email)
}

// lastResetCode extracts the raw code from the most recent reset link.
func (n *recordingNotifier) lastResetCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.resetLinks)
	return strings.TrimPrefix(n.resetLinks[len(n.resetLinks)-1], resetLinkBase)
}

func newAuthService(t *testing.T) (*AuthService, *recordingNotifier) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := jwtx.NewCodec([]byte("test-signing-key"), time.Hour)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	return &AuthService{
		Store:         st,
		Tokens:        codec,
		Notifier:      notifier,
		ResetLinkBase: resetLinkBase,
	}, notifier
}

func TestRegisterAndLogin(t *testing.T) {
	svc, notifier := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterPatient(ctx, "pat@example.com", "Pat Smith", "hunter2!", "555-0101")
	require.NoError(t, err)
	require.Equal(t, []string{domain.RolePatient}, user.Roles)
	require.Contains(t, notifier.welcomes, "pat@example.com")

	t.Run("login returns a token for the email subject", func(t *testing.T) {
		token, got, err := svc.Login(ctx, "pat@example.com", "hunter2!")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "pat@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email reports the same error as wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "hunter2!")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.RegisterPatient(ctx, "pat@example.com", "Other Pat", "hunter2!", "")
		require.ErrorIs(t, err, ErrEmailAlreadyTaken)
	})

	t.Run("disabled account", func(t *testing.T) {
		require.NoError(t, svc.Store.Users().SetActive(ctx, user.ID, false))
		_, _, err := svc.Login(ctx, "pat@example.com", "hunter2!")
		require.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestRegisterDoctor(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	profile := domain.Doctor{
		FirstName:      "Ada",
		LastName:       "Hart",
		LicenseNumber:  "LIC-100",
		Specialization: "cardiology",
	}

	user, err := svc.RegisterDoctor(ctx, "ada@example.com", "hunter2!", profile)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleDoctor}, user.Roles)

	stored, err := svc.Store.Doctors().GetDoctorByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "LIC-100", stored.LicenseNumber)

	t.Run("license number required", func(t *testing.T) {
		bad := profile
		bad.LicenseNumber = ""
		_, err := svc.RegisterDoctor(ctx, "ben@example.com", "hunter2!", bad)
		require.ErrorIs(t, err, ErrInvalidRegistration)
	})

	t.Run("duplicate license", func(t *testing.T) {
		_, err := svc.RegisterDoctor(ctx, "ben@example.com", "hunter2!", profile)
		require.ErrorIs(t, err, ErrLicenseAlreadyTaken)

		// The user row must not survive the failed registration.
		_, _, err = svc.Login(ctx, "ben@example.com", "hunter2!")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestPasswordResetLifecycle(t *testing.T) {
	svc, notifier := newAuthService(t)
	ctx := context.Background()

	_, err := svc.RegisterPatient(ctx, "pat@example.com", "Pat Smith", "oldpass!", "")
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		require.ErrorIs(t, svc.ForgotPassword(ctx, "ghost@example.com"), ErrEmailNotFound)
	})

	t.Run("code works exactly once", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(ctx, "pat@example.com"))
		code := notifier.lastResetCode(t)

		require.NoError(t, svc.ResetPassword(ctx, code, "newpass!"))
		require.Contains(t, notifier.updated, "pat@example.com")

		_, _, err := svc.Login(ctx, "pat@example.com", "newpass!")
		require.NoError(t, err)
		_, _, err = svc.Login(ctx, "pat@example.com", "oldpass!")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		// Replaying the consumed code fails as invalid, not expired.
		require.ErrorIs(t, svc.ResetPassword(ctx, code, "another!"), ErrInvalidResetCode)
	})

	t.Run("reissue supersedes the previous code", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(ctx, "pat@example.com"))
		first := notifier.lastResetCode(t)

		require.NoError(t, svc.ForgotPassword(ctx, "pat@example.com"))
		second := notifier.lastResetCode(t)
		require.NotEqual(t, first, second)

		require.ErrorIs(t, svc.ResetPassword(ctx, first, "viaold!"), ErrInvalidResetCode)
		require.NoError(t, svc.ResetPassword(ctx, second, "vianew!"))
	})

	t.Run("garbage code", func(t *testing.T) {
		require.ErrorIs(t, svc.ResetPassword(ctx, "not-a-real-code", "x!"), ErrInvalidResetCode)
	})
}

func TestResetPasswordExpiredCodeIsDeletedOnDetection(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterPatient(ctx, "pat@example.com", "Pat Smith", "oldpass!", "")
	require.NoError(t, err)

	raw, err := cryptox.GenerateCode(cryptox.CodeSize256)
	require.NoError(t, err)
	require.NoError(t, svc.Store.ResetCodes().CreateResetCode(ctx, domain.PasswordResetCode{
		ID:        idx.New().String(),
		UserID:    user.ID,
		CodeHash:  cryptox.FingerprintCode(raw),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	require.ErrorIs(t, svc.ResetPassword(ctx, raw, "newpass!"), ErrResetCodeExpired)

	// Detection deleted the row, so a retry is invalid rather than expired.
	require.ErrorIs(t, svc.ResetPassword(ctx, raw, "newpass!"), ErrInvalidResetCode)

	// The password never changed.
	_, _, err = svc.Login(ctx, "pat@example.com", "oldpass!")
	require.NoError(t, err)
}

func TestResetPasswordConcurrentConsumptionHasOneWinner(t *testing.T) {
	svc, notifier := newAuthService(t)
	ctx := context.Background()

	_, err := svc.RegisterPatient(ctx, "pat@example.com", "Pat Smith", "oldpass!", "")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "pat@example.com"))
	code := notifier.lastResetCode(t)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.ResetPassword(ctx, code, "newpass!")
		}()
	}
	wg.Wait()

	var winners int
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrInvalidResetCode)
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent consumption must win")

	_, _, err = svc.Login(ctx, "pat@example.com", "newpass!")
	require.NoError(t, err)
}

func TestPrincipalResolver(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterPatient(ctx, "pat@example.com", "Pat Smith", "hunter2!", "")
	require.NoError(t, err)

	resolver := &PrincipalResolver{Store: svc.Store}

	t.Run("maps user to principal", func(t *testing.T) {
		p, err := resolver.ResolvePrincipal(ctx, "pat@example.com")
		require.NoError(t, err)
		require.Equal(t, "pat@example.com", p.Subject)
		require.Equal(t, []string{domain.RolePatient}, p.Permissions)
		require.True(t, p.Enabled)
	})

	t.Run("disabled account yields disabled principal", func(t *testing.T) {
		require.NoError(t, svc.Store.Users().SetActive(ctx, user.ID, false))
		p, err := resolver.ResolvePrincipal(ctx, "pat@example.com")
		require.NoError(t, err)
		require.False(t, p.Enabled)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := resolver.ResolvePrincipal(ctx, "ghost@example.com")
		require.ErrorIs(t, err, httpx.ErrPrincipalNotFound)
	})
}

func TestHousekeepingSweepsExpiredCodes(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterPatient(ctx, "pat@example.com", "Pat Smith", "hunter2!", "")
	require.NoError(t, err)

	hash := cryptox.FingerprintCode("stale")
	require.NoError(t, svc.Store.ResetCodes().CreateResetCode(ctx, domain.PasswordResetCode{
		ID:        idx.New().String(),
		UserID:    user.ID,
		CodeHash:  hash,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	require.NoError(t, svc.Store.ResetCodes().DeleteExpiredResetCodes(ctx))

	_, err = svc.Store.ResetCodes().GetResetCodeByHash(ctx, hash)
	require.ErrorIs(t, err, store.ErrNotFound)
}
