package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hszk-dev/coachgate/internal/domain/model"
)

func newTestUserService(store *mockObjectStorage) (*userService, *mockAuditRecorder) {
	audit := &mockAuditRecorder{}
	svc := NewUserService(store, testHasher, audit).(*userService)
	svc.now = fixedNow
	return svc, audit
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	store := newMockObjectStorage()
	seedUsers(t, store, map[string][]string{"root": {model.RoleFounders}})
	svc, audit := newTestUserService(store)

	view, err := svc.Create(ctx, "root", CreateUserInput{
		Username: " coach1 ",
		Password: "pw",
		Roles:    []string{"Coach", " Coach", "Parent"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if view.Username != "coach1" || !view.IsCoach || view.IsAdmin {
		t.Errorf("view = %+v", view)
	}
	if len(view.Roles) != 2 {
		t.Errorf("Roles = %v, want deduplicated", view.Roles)
	}

	data, _ := store.Get(model.UsersTableKey)
	if strings.Contains(string(data), `"pw"`) {
		t.Error("plaintext password persisted")
	}
	if !strings.Contains(string(data), "passwordHash") {
		t.Error("password hash not persisted")
	}
	if got := audit.actions(); len(got) != 1 || got[0] != model.ActionCreateUser {
		t.Errorf("audit actions = %v", got)
	}

	_, err = svc.Create(ctx, "root", CreateUserInput{Username: "coach1", Password: "x"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate: expected ErrConflict, got %v", err)
	}
}

func TestUserService_CreateKeepsAnAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("first user must be an admin", func(t *testing.T) {
		store := newMockObjectStorage()
		svc, audit := newTestUserService(store)

		_, err := svc.Create(ctx, "root", CreateUserInput{Username: "c", Password: "pw", Roles: []string{model.RoleCoach}})
		if !errors.Is(err, ErrLastAdmin) || !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrLastAdmin, got %v", err)
		}
		if _, ok := store.Get(model.UsersTableKey); ok {
			t.Error("users table written for a rejected create")
		}
		if got := audit.actions(); len(got) != 0 {
			t.Errorf("audit actions = %v", got)
		}

		// The table is still missing, so the bootstrap admin can log in.
		if _, err := newTestAuthService(store, &mockAuditRecorder{}).Login(ctx, "admin", "admin"); err != nil {
			t.Errorf("bootstrap login: %v", err)
		}
	})

	t.Run("empty table accepts an admin only", func(t *testing.T) {
		store := newMockObjectStorage()
		store.Put(model.UsersTableKey, []byte("[]"))
		svc, _ := newTestUserService(store)

		if _, err := svc.Create(ctx, "root", CreateUserInput{Username: "c", Password: "pw"}); !errors.Is(err, ErrLastAdmin) {
			t.Errorf("role-less user: expected ErrLastAdmin, got %v", err)
		}
		view, err := svc.Create(ctx, "root", CreateUserInput{Username: "f", Password: "pw", Roles: []string{model.RoleFounders}})
		if err != nil {
			t.Fatalf("admin create: %v", err)
		}
		if !view.IsAdmin {
			t.Errorf("view = %+v", view)
		}
		if _, err := svc.Create(ctx, "f", CreateUserInput{Username: "c", Password: "pw"}); err != nil {
			t.Errorf("non-admin after an admin exists: %v", err)
		}
	})
}

func TestUserService_CreateValidation(t *testing.T) {
	svc, _ := newTestUserService(newMockObjectStorage())

	tests := []struct {
		name  string
		input CreateUserInput
	}{
		{name: "empty username", input: CreateUserInput{Username: "  ", Password: "pw"}},
		{name: "empty password", input: CreateUserInput{Username: "u", Password: ""}},
		{name: "blank role", input: CreateUserInput{Username: "u", Password: "pw", Roles: []string{""}}},
		{name: "long username", input: CreateUserInput{Username: strings.Repeat("u", 65), Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), "root", tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUserService_ListHidesHashes(t *testing.T) {
	store := newMockObjectStorage()
	seedUsers(t, store, map[string][]string{"a": {model.RoleFounders}})
	svc, _ := newTestUserService(store)

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 1 || users[0].Username != "a" || !users[0].IsAdmin {
		t.Errorf("users = %+v", users)
	}
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	store := newMockObjectStorage()
	seedUsers(t, store, map[string][]string{
		"admin": {model.RoleFounders},
		"coach": {model.RoleCoach},
	})
	svc, _ := newTestUserService(store)

	roles := []string{model.RoleHeadCoach}
	view, err := svc.Update(ctx, "admin", "coach", UpdateUserInput{Roles: &roles})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !view.IsCoach || view.Roles[0] != model.RoleHeadCoach {
		t.Errorf("view = %+v", view)
	}
	if !view.UpdatedAt.Equal(fixedNow()) {
		t.Errorf("UpdatedAt = %v", view.UpdatedAt)
	}

	password := "new-pw"
	if _, err := svc.Update(ctx, "admin", "coach", UpdateUserInput{Password: &password}); err != nil {
		t.Fatalf("Update(password) error = %v", err)
	}
	auth := newTestAuthService(store, &mockAuditRecorder{})
	if _, err := auth.Login(ctx, "coach", "new-pw"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := auth.Login(ctx, "coach", "coach-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}

	if _, err := svc.Update(ctx, "admin", "ghost", UpdateUserInput{Roles: &roles}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, "admin", "coach", UpdateUserInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	empty := ""
	if _, err := svc.Update(ctx, "admin", "coach", UpdateUserInput{Password: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserService_LastAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot delete the only admin", func(t *testing.T) {
		store := newMockObjectStorage()
		seedUsers(t, store, map[string][]string{"admin": {model.RoleFounders}, "coach": {model.RoleCoach}})
		svc, _ := newTestUserService(store)

		if err := svc.Delete(ctx, "admin", "admin"); !errors.Is(err, ErrLastAdmin) {
			t.Errorf("expected ErrLastAdmin, got %v", err)
		}
		if !errors.Is(ErrLastAdmin, ErrConflict) {
			t.Error("ErrLastAdmin should be a conflict")
		}
	})

	t.Run("cannot demote the only admin", func(t *testing.T) {
		store := newMockObjectStorage()
		seedUsers(t, store, map[string][]string{"admin": {model.RoleFounders}})
		svc, _ := newTestUserService(store)

		roles := []string{model.RoleCoach}
		if _, err := svc.Update(ctx, "admin", "admin", UpdateUserInput{Roles: &roles}); !errors.Is(err, ErrLastAdmin) {
			t.Errorf("expected ErrLastAdmin, got %v", err)
		}
	})

	t.Run("one of two admins can go", func(t *testing.T) {
		store := newMockObjectStorage()
		seedUsers(t, store, map[string][]string{"a1": {model.RoleFounders}, "a2": {model.RoleFounders}})
		svc, audit := newTestUserService(store)

		if err := svc.Delete(ctx, "a1", "a2"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != model.ActionDeleteUser {
			t.Errorf("audit actions = %v", got)
		}
		if err := svc.Delete(ctx, "a1", "a1"); !errors.Is(err, ErrLastAdmin) {
			t.Errorf("expected ErrLastAdmin, got %v", err)
		}
	})

	t.Run("delete unknown user", func(t *testing.T) {
		svc, _ := newTestUserService(newMockObjectStorage())
		if err := svc.Delete(ctx, "a", "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
