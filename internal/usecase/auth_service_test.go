package usecase

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
)

const testSecret = "test-secret"

var testHasher = auth.NewPasswordHasher(auth.MinCost)

func newTestAuthService(store repository.ObjectStorage, audit AuditRecorder) *authService {
	svc := NewAuthService(store, testHasher, auth.NewTokenManager(testSecret), audit, DefaultBootstrapConfig()).(*authService)
	svc.creds.now = fixedNow
	return svc
}

func seedUsers(t *testing.T, store repository.ObjectStorage, users map[string][]string) {
	t.Helper()
	svc := NewUserService(store, testHasher, &mockAuditRecorder{})

	// Admins go first: the table may never hold only non-admins.
	usernames := slices.Collect(maps.Keys(users))
	slices.SortFunc(usernames, func(a, b string) int {
		aAdmin, bAdmin := model.HasAdminRole(users[a]), model.HasAdminRole(users[b])
		switch {
		case aAdmin && !bAdmin:
			return -1
		case bAdmin && !aAdmin:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})

	for _, username := range usernames {
		if _, err := svc.Create(context.Background(), "seed", CreateUserInput{
			Username: username,
			Password: username + "-pw",
			Roles:    users[username],
		}); err != nil {
			t.Fatalf("seed %s: %v", username, err)
		}
	}
}

func TestAuthService_LoginBootstrapsAdmin(t *testing.T) {
	store := newMockObjectStorage()
	audit := &mockAuditRecorder{}
	svc := newTestAuthService(store, audit)

	out, err := svc.Login(context.Background(), "admin", "admin")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !out.Claims.IsAdmin || out.Claims.IsCoach {
		t.Errorf("claims = %+v, want admin only", out.Claims)
	}
	if out.Token == "" {
		t.Error("expected token")
	}

	claims, err := svc.Verify(out.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("Username = %q", claims.Username)
	}

	want := []model.Action{model.ActionBootstrapAdmin, model.ActionLogin}
	if got := audit.actions(); !slices.Equal(got, want) {
		t.Errorf("audit actions = %v, want %v", got, want)
	}
}

func TestAuthService_BootstrapLeavesExistingTable(t *testing.T) {
	store := newMockObjectStorage()
	store.Put(model.UsersTableKey, []byte("[]"))
	svc := newTestAuthService(store, &mockAuditRecorder{})

	_, err := svc.Login(context.Background(), "admin", "admin")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	data, _ := store.Get(model.UsersTableKey)
	if string(data) != "[]" {
		t.Errorf("users.json was rewritten: %s", data)
	}
}

func TestAuthService_ConcurrentBootstrap(t *testing.T) {
	store := newMockObjectStorage()
	svc := newTestAuthService(store, &mockAuditRecorder{})

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Login(context.Background(), "admin", "admin")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Login() error = %v", err)
		}
	}
	creds, err := svc.creds.table.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(creds) != 1 {
		t.Errorf("len(users) = %d, want 1", len(creds))
	}
}

func TestAuthService_Login(t *testing.T) {
	store := newMockObjectStorage()
	seedUsers(t, store, map[string][]string{
		"coach":   {model.RoleCoach},
		"founder": {model.RoleFounders},
	})

	tests := []struct {
		name      string
		username  string
		password  string
		wantErr   error
		wantCoach bool
		wantAdmin bool
	}{
		{name: "coach", username: "coach", password: "coach-pw", wantCoach: true},
		{name: "admin", username: "founder", password: "founder-pw", wantAdmin: true},
		{name: "surrounding whitespace in username", username: " coach ", password: "coach-pw", wantCoach: true},
		{name: "wrong password", username: "coach", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "ghost", password: "coach-pw", wantErr: ErrInvalidCredentials},
		{name: "empty username", username: "", password: "x", wantErr: ErrInvalidInput},
		{name: "empty password", username: "coach", password: "", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &mockAuditRecorder{}
			svc := newTestAuthService(store, audit)

			out, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Claims.IsCoach != tt.wantCoach || out.Claims.IsAdmin != tt.wantAdmin {
				t.Errorf("claims = %+v", out.Claims)
			}
		})
	}
}

func TestAuthService_FailuresAreIndistinguishable(t *testing.T) {
	store := newMockObjectStorage()
	seedUsers(t, store, map[string][]string{"founder": {model.RoleFounders}, "coach": {model.RoleCoach}})
	audit := &mockAuditRecorder{}
	svc := newTestAuthService(store, audit)

	_, errUnknown := svc.Login(context.Background(), "ghost", "pw")
	_, errWrong := svc.Login(context.Background(), "coach", "pw")

	if errUnknown == nil || errWrong == nil {
		t.Fatal("expected both logins to fail")
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("errors differ: %q vs %q", errUnknown, errWrong)
	}

	want := []model.Action{model.ActionLoginFailed, model.ActionLoginFailed}
	if got := audit.actions(); !slices.Equal(got, want) {
		t.Errorf("audit actions = %v, want %v", got, want)
	}
}

func TestAuthService_BackendUnavailable(t *testing.T) {
	store := newMockObjectStorage()
	store.existsFn = func(context.Context, string) (bool, error) {
		return false, repository.ErrBackendUnavailable
	}
	svc := newTestAuthService(store, &mockAuditRecorder{})

	_, err := svc.Login(context.Background(), "admin", "admin")
	if !errors.Is(err, repository.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("backend failure must not look like bad credentials")
	}
}

func TestAuthService_VerifyRejectsForeignToken(t *testing.T) {
	svc := newTestAuthService(newMockObjectStorage(), &mockAuditRecorder{})
	other := auth.NewTokenManager("another-secret")

	token, _, err := other.Issue(model.Credential{Username: "alice", Roles: []string{model.RoleFounders}})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
