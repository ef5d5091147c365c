package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/nsu-it/helpdesk-service/internal/auth"
	"github.com/nsu-it/helpdesk-service/internal/domain"
	apperrors "github.com/nsu-it/helpdesk-service/pkg/util"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
	seq     int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = "u-created"
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func newAuthFixture() (*AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	svc := NewAuthService(AuthDependencies{
		UserRepo:   users,
		StaffRepo:  &fakeStaffRepo{members: map[string]*domain.StaffMember{}},
		Tokens:     auth.NewTokenManager("test-secret", 60),
		BcryptCost: 4,
	})
	return svc, users
}

func TestRegisterUserRejectsOutsideEmail(t *testing.T) {
	svc, _ := newAuthFixture()
	cases := []struct {
		name  string
		email string
		valid bool
	}{
		{"campus address", "someone@northsouth.edu", true},
		{"gmail address", "someone@gmail.com", false},
		{"subdomain trick", "someone@northsouth.edu.evil.com", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterUser(context.Background(), RegisterInput{
				Name:     "Someone",
				Email:    tc.email,
				Password: "longenough",
				Role:     domain.RoleStudent,
			})
			if tc.valid && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tc.valid {
				var domainErr *apperrors.DomainError
				if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
					t.Fatalf("expected VALIDATION_FAILED, got %v", err)
				}
			}
		})
	}
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture()
	user, err := svc.RegisterUser(context.Background(), RegisterInput{
		Name:     "Fresh Student",
		Email:    "fresh@northsouth.edu",
		Password: "longenough",
		Role:     domain.RoleStudent,
		Type:     domain.TypeFresherStudent,
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Status != domain.UserStatusActive {
		t.Fatalf("expected active user, got %s", user.Status)
	}

	result, err := svc.LoginUser(context.Background(), "fresh@northsouth.edu", "longenough")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if result.Token == "" || result.User == nil {
		t.Fatalf("expected token and user, got %+v", result)
	}

	_, err = svc.LoginUser(context.Background(), "fresh@northsouth.edu", "wrongpass")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()
	input := RegisterInput{
		Name:     "Someone",
		Email:    "dup@northsouth.edu",
		Password: "longenough",
		Role:     domain.RoleFaculty,
		Type:     domain.TypeLecturer,
	}
	if _, err := svc.RegisterUser(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.RegisterUser(context.Background(), input)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}
