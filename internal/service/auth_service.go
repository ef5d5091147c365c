package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nsu-it/helpdesk-service/internal/auth"
	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/repository"
	apperrors "github.com/nsu-it/helpdesk-service/pkg/util"
)

// Registration is limited to university addresses.
var nsuEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@northsouth\.edu$`)

const minPasswordLength = 8

// AuthService handles registration and login for requesters and staff.
type AuthService struct {
	users      repository.UserRepository
	staff      repository.StaffRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles auth service dependencies.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	StaffRepo  repository.StaffRepository
	Tokens     *auth.TokenManager
	BcryptCost int
}

// RegisterInput describes requester signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.UserRole
	Type     domain.UserType
}

// AuthResult carries a token pair plus the subject it was issued for.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
	Staff     *domain.StaffMember
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		staff:      deps.StaffRepo,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
	}
}

var validUserRoles = map[domain.UserRole]bool{
	domain.RoleStudent:       true,
	domain.RoleFaculty:       true,
	domain.RoleStaff:         true,
	domain.RoleLabInstructor: true,
}

// RegisterUser creates a requester account. Only university email
// addresses are accepted.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !nsuEmailPattern.MatchString(email) {
		fieldErrors["email"] = "A valid NSU email address is required"
	}
	if len(input.Password) < minPasswordLength {
		fieldErrors["password"] = "Password must be at least 8 characters"
	}
	if !validUserRoles[input.Role] {
		fieldErrors["role"] = "Unknown role"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("registration invalid", fieldErrors)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Type:         input.Type,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginUser authenticates a requester and issues a token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	token, expires, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// LoginStaff authenticates a staff member and issues a token carrying the
// staff role.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	member, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !member.Active {
		return nil, apperrors.NewForbidden("account deactivated")
	}
	if err := auth.ComparePassword(member.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	role := member.Role
	token, expires, err := s.tokens.GenerateToken(member.ID, domain.SubjectTypeStaff, &role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expires, Staff: member}, nil
}

// ChangeUserPassword verifies the old password before setting a new one.
func (s *AuthService) ChangeUserPassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{
			"password": "Password must be at least 8 characters",
		})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}
