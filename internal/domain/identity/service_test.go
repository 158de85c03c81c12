package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pallinder/go-randomdata"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// -- Mock Repositories --

type mockAccountRepo struct {
	accounts map[uuid.UUID]*Account
}

func (m *mockAccountRepo) Create(_ context.Context, a *Account) error {
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return apperr.Conflict("account")
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperr.NotFound("account")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccountRepo) GetByEmail(_ context.Context, email string) (*Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("account")
}

func (m *mockAccountRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	a, ok := m.accounts[id]
	if !ok {
		return apperr.NotFound("account")
	}
	a.PasswordHash = hash
	return nil
}

type mockProfileRepo struct {
	profiles map[uuid.UUID]*Profile
}

func (m *mockProfileRepo) Get(_ context.Context, id uuid.UUID) (*Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperr.NotFound("profile")
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) Upsert(_ context.Context, p *Profile) error {
	if existing, ok := m.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

type mockResetRepo struct {
	resets map[uuid.UUID]*PasswordReset
}

func (m *mockResetRepo) Create(_ context.Context, r *PasswordReset) error {
	r.ID = uuid.New()
	cp := *r
	m.resets[r.ID] = &cp
	return nil
}

func (m *mockResetRepo) GetByTokenHash(_ context.Context, hash string) (*PasswordReset, error) {
	for _, r := range m.resets {
		if r.TokenHash == hash {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("password reset")
}

func (m *mockResetRepo) MarkUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r, ok := m.resets[id]
	if !ok || r.UsedAt != nil {
		return apperr.NotFound("password reset")
	}
	r.UsedAt = &at
	return nil
}

type captureNotifier struct {
	email string
	token string
	calls int
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, token string, _ time.Time) error {
	n.email = email
	n.token = token
	n.calls++
	return nil
}

type testEnv struct {
	svc      *Service
	accounts *mockAccountRepo
	notifier *captureNotifier
	tokens   *auth.TokenManager
	denylist *auth.Denylist
	clock    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts: &mockAccountRepo{accounts: make(map[uuid.UUID]*Account)},
		notifier: &captureNotifier{},
		tokens:   auth.NewTokenManager("test-secret-test-secret-test-secret", "clinicdesk", time.Hour),
		denylist: auth.NewDenylist(time.Minute),
		clock:    time.Now(),
	}
	t.Cleanup(env.denylist.Close)
	env.svc = NewService(
		env.accounts,
		&mockProfileRepo{profiles: make(map[uuid.UUID]*Profile)},
		&mockResetRepo{resets: make(map[uuid.UUID]*PasswordReset)},
		env.tokens,
		env.denylist,
		env.notifier,
		db.NoTx,
		Options{AllowSignup: true, ResetTTL: time.Hour},
		nil,
		zerolog.Nop(),
	)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (env *testEnv) signup(t *testing.T, email, password string) *Account {
	t.Helper()
	a, err := env.svc.Signup(context.Background(), Credentials{Email: email, Password: password})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return a
}

// -- Account Tests --

func TestService_Signup(t *testing.T) {
	env := newTestEnv(t)
	email := randomdata.Email()

	a := env.signup(t, email, "secret1")
	if a.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if a.PasswordHash == "secret1" || !auth.CheckPassword(a.PasswordHash, "secret1") {
		t.Error("expected password to be stored hashed")
	}
	if a.Email != NormalizeEmail(email) {
		t.Errorf("expected normalized email, got %q", a.Email)
	}
}

func TestService_Signup_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ana@example.com", "secret1")

	_, err := env.svc.Signup(context.Background(), Credentials{Email: "ANA@example.com", Password: "secret2"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_Signup_Disabled(t *testing.T) {
	env := newTestEnv(t)
	env.svc.opts.AllowSignup = false

	_, err := env.svc.Signup(context.Background(), Credentials{Email: "ana@example.com", Password: "secret1"})
	if !errors.Is(err, ErrSignupDisabled) {
		t.Errorf("expected ErrSignupDisabled, got %v", err)
	}
	if _, err := env.svc.CreateAccount(context.Background(), Credentials{Email: "ana@example.com", Password: "secret1"}); err != nil {
		t.Errorf("expected CreateAccount to ignore the sign-up policy, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "ana@example.com", "secret1")

	tok, err := env.svc.Login(context.Background(), Credentials{Email: " Ana@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := env.tokens.Verify(tok.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id, _ := claims.OwnerID(); id != a.ID {
		t.Errorf("expected subject %s, got %s", a.ID, id)
	}
}

func TestService_Login_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ana@example.com", "secret1")

	for _, c := range []Credentials{
		{Email: "ana@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "secret1"},
	} {
		if _, err := env.svc.Login(context.Background(), c); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%s) expected ErrInvalidCredentials, got %v", c.Email, err)
		}
	}
}

func TestService_Logout(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ana@example.com", "secret1")
	tok, _ := env.svc.Login(context.Background(), Credentials{Email: "ana@example.com", Password: "secret1"})
	claims, _ := env.tokens.Verify(tok.AccessToken)

	env.svc.Logout(claims)
	if !env.denylist.IsRevoked(claims.ID) {
		t.Error("expected token id to be revoked")
	}
}

// -- Password Reset Tests --

func TestService_PasswordReset(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "ana@example.com", "secret1")

	if err := env.svc.RequestPasswordReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if env.notifier.calls != 1 || env.notifier.email != a.Email {
		t.Fatalf("expected reset to be mailed to %s, got %+v", a.Email, env.notifier)
	}

	err := env.svc.ConfirmPasswordReset(context.Background(), ResetConfirmation{Token: env.notifier.token, Password: "newsecret"})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := env.svc.Login(context.Background(), Credentials{Email: a.Email, Password: "newsecret"}); err != nil {
		t.Errorf("expected login with new password, got %v", err)
	}
	if _, err := env.svc.Login(context.Background(), Credentials{Email: a.Email, Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected old password to be rejected, got %v", err)
	}
}

func TestService_PasswordReset_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ana@example.com", "secret1")
	env.svc.RequestPasswordReset(context.Background(), "ana@example.com")
	rc := ResetConfirmation{Token: env.notifier.token, Password: "newsecret"}

	if err := env.svc.ConfirmPasswordReset(context.Background(), rc); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if err := env.svc.ConfirmPasswordReset(context.Background(), rc); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("expected second use to fail, got %v", err)
	}
}

func TestService_PasswordReset_Expired(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ana@example.com", "secret1")
	env.svc.RequestPasswordReset(context.Background(), "ana@example.com")

	env.clock = env.clock.Add(2 * time.Hour)
	err := env.svc.ConfirmPasswordReset(context.Background(), ResetConfirmation{Token: env.notifier.token, Password: "newsecret"})
	if !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("expected expired token to fail, got %v", err)
	}
}

func TestService_PasswordReset_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Errorf("expected silent success, got %v", err)
	}
	if env.notifier.calls != 0 {
		t.Error("expected no email for unknown address")
	}
}

func TestService_PasswordReset_BadTokenAndWeakPassword(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.ConfirmPasswordReset(context.Background(), ResetConfirmation{Token: "nope", Password: "newsecret"})
	if !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("expected ErrInvalidResetToken, got %v", err)
	}
	err = env.svc.ConfirmPasswordReset(context.Background(), ResetConfirmation{Token: "nope", Password: "123"})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for weak password, got %v", err)
	}
}

// -- Profile Tests --

func TestService_GetProfile_EmptyWithEmail(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "ana@example.com", "secret1")

	p, err := env.svc.GetProfile(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != a.ID || p.Email != "ana@example.com" || p.Name != "" {
		t.Errorf("unexpected empty profile: %+v", p)
	}
}

func TestService_UpdateProfile_Upserts(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "ana@example.com", "secret1")

	p := &Profile{ID: a.ID, Name: "Dr. Ana Lima", Specialization: "Orthopedics"}
	if err := env.svc.UpdateProfile(context.Background(), p); err != nil {
		t.Fatalf("first save: %v", err)
	}
	p.CouncilRegistration = "CREFITO-3 12345"
	if err := env.svc.UpdateProfile(context.Background(), p); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _ := env.svc.GetProfile(context.Background(), a.ID)
	if got.Name != "Dr. Ana Lima" || got.CouncilRegistration != "CREFITO-3 12345" {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestService_UpdateProfile_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.UpdateProfile(context.Background(), &Profile{ID: uuid.New(), Name: "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
