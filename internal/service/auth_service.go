package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/interviews-api/internal/models"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

type latestStatusReader interface {
	Latest(ctx context.Context, universityID string) (*models.StudentStatus, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	Audience          []string
}

// AuthService signs staff and students in and validates their tokens.
type AuthService struct {
	users     authUserRepository
	students  studentReader
	statuses  latestStatusReader
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, students studentReader, statuses latestStatusReader, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = time.Hour
	}
	return &AuthService{
		users:     users,
		students:  students,
		statuses:  statuses,
		audit:     auditOrDiscard(audit),
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Login authenticates a staff member by email and password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}

	principal := &models.UserInfo{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
	}
	res, err := s.issue(principal)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}
	s.audit.Record(ctx, models.Actor{UserID: user.ID, Email: user.Email, IP: req.IP}, "Users", "Signed in")
	return res, nil
}

// StudentLogin signs a student in with university and national id. Students
// flagged as unpaid are refused.
func (s *AuthService) StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	student, err := s.authenticateStudent(ctx, req)
	if err != nil {
		return nil, err
	}
	if !student.HasPaid() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "please review your financial status with the university")
	}
	return s.issueStudent(ctx, student, req.IP)
}

// BookingLogin signs a student in to the booking portal. Only students whose
// latest status is Fulfilled may book.
func (s *AuthService) BookingLogin(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	student, err := s.authenticateStudent(ctx, req)
	if err != nil {
		return nil, err
	}

	latest, err := s.statuses.Latest(ctx, student.UniversityID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student status")
	}
	if latest == nil || latest.Status != models.StatusFulfilled {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "you are not yet eligible to book an interview, please complete your data first")
	}
	return s.issueStudent(ctx, student, req.IP)
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) authenticateStudent(ctx context.Context, req models.StudentLoginRequest) (*models.Student, error) {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	student, err := s.students.FindByID(ctx, req.UniversityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if student.NationalID != strings.TrimSpace(req.NationalID) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}
	return student, nil
}

func (s *AuthService) issueStudent(ctx context.Context, student *models.Student, ip string) (*models.LoginResponse, error) {
	res, err := s.issue(&models.UserInfo{
		ID:       student.UniversityID,
		Email:    student.Email,
		FullName: student.FullName,
		Role:     models.RoleStudent,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("student signed in", zap.String("university_id", student.UniversityID))
	s.audit.Record(ctx, models.Actor{UserID: student.UniversityID, Email: student.Email, IP: ip}, "Students", "Student signed in")
	return res, nil
}

func (s *AuthService) issue(principal *models.UserInfo) (*models.LoginResponse, error) {
	token, issuedAt, err := s.generateAccessToken(principal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        *principal,
	}, nil
}

func (s *AuthService) generateAccessToken(principal *models.UserInfo) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:       principal.ID,
		Role:         principal.Role,
		Email:        principal.Email,
		FullName:     principal.FullName,
		DepartmentID: principal.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   principal.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
