package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"academy-api/internal/domain"
	"academy-api/internal/email"
	"academy-api/internal/repository"
)

// AuthService coordina registro, verificacion de email y login.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
	tokens      *JWTService
	limiter     ResendRateLimiter
	bcryptCost  int
	baseURL     string
}

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	emailSender email.Sender,
	tokens *JWTService,
	limiter ResendRateLimiter,
	bcryptCost int,
	baseURL string,
) *AuthService {
	if limiter == nil {
		limiter = NewResendRateLimiter(codeTTL, 3)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
		tokens:      tokens,
		limiter:     limiter,
		bcryptCost:  bcryptCost,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrCodeInvalid        = errors.New("invalid code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidRole        = errors.New("role must be student or tutor")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// El codigo de verificacion vive 10 minutos desde su emision.
const codeTTL = 10 * time.Minute

type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
	Phone           string
	Gender          string
	DOB             *time.Time
	School          string
	ClassLevel      string
}

// Register crea un usuario sin verificar con un codigo fresco y envia el
// correo de verificacion. Una falla de email no hace fallar el registro:
// se informa con emailSent=false.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, bool, error) {
	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, false, ErrInvalidEmail
	}

	role := domain.Role(strings.ToLower(strings.TrimSpace(input.Role)))
	if !role.SelfRegisterable() {
		return domain.User{}, false, ErrInvalidRole
	}
	if err := ValidatePassword(input.Password); err != nil {
		return domain.User{}, false, err
	}
	if input.Password != input.ConfirmPassword {
		return domain.User{}, false, ErrPasswordMismatch
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, false, repository.ErrDuplicateEmail
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, false, err
	}

	code, issuedAt, err := generateVerificationCode()
	if err != nil {
		return domain.User{}, false, err
	}

	user := domain.User{
		ID:               uuid.NewString(),
		FullName:         strings.TrimSpace(input.FullName),
		Email:            emailAddr,
		PasswordHash:     string(hashBytes),
		Role:             role,
		Phone:            strings.TrimSpace(input.Phone),
		Gender:           strings.TrimSpace(input.Gender),
		DOB:              input.DOB,
		School:           strings.TrimSpace(input.School),
		ClassLevel:       strings.TrimSpace(input.ClassLevel),
		Subjects:         []string{},
		Verified:         false,
		VerificationCode: code,
		CodeIssuedAt:     &issuedAt,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, false, err
	}

	emailSent := s.deliverCode(ctx, user, code)
	return user, emailSent, nil
}

// Login valida credenciales contra el registro persistido. El mismo error
// cubre email desconocido y password incorrecto para no permitir enumerar
// cuentas.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.Verified {
		return domain.User{}, ErrNotVerified
	}
	return user, nil
}

// VerifyCode canjea un codigo numerico. Devuelve alreadyVerified=true si
// la cuenta ya estaba verificada (exito idempotente, sin mutacion).
func (s *AuthService) VerifyCode(ctx context.Context, emailAddr, code string) (bool, error) {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" || code == "" {
		return false, ErrCodeInvalid
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrCodeInvalid
		}
		return false, err
	}
	if user.Verified {
		return true, nil
	}
	if user.VerificationCode == "" || user.CodeIssuedAt == nil {
		return false, ErrCodeInvalid
	}
	if subtle.ConstantTimeCompare([]byte(user.VerificationCode), []byte(code)) != 1 {
		return false, ErrCodeInvalid
	}
	if time.Now().UTC().Sub(*user.CodeIssuedAt) > codeTTL {
		return false, ErrCodeExpired
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return false, err
	}
	return false, nil
}

// VerifyByToken canjea el token firmado del link de verificacion. El id
// viaja en el token, no hay comparacion de codigo; la vigencia es la del
// propio token.
func (s *AuthService) VerifyByToken(ctx context.Context, token string) (bool, error) {
	if s.tokens == nil {
		return false, ErrCodeInvalid
	}
	claims, err := s.tokens.ParseVerifyToken(token)
	if err != nil {
		return false, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	if user.Verified {
		return true, nil
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return false, err
	}
	return false, nil
}

// ResendCode emite un codigo nuevo que reemplaza al anterior. El codigo
// viejo queda invalidado porque el registro solo guarda el ultimo.
func (s *AuthService) ResendCode(ctx context.Context, emailAddr string) (bool, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return false, ErrInvalidEmail
	}
	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return false, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	if user.Verified {
		return false, ErrAlreadyVerified
	}

	code, issuedAt, err := generateVerificationCode()
	if err != nil {
		return false, err
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, issuedAt); err != nil {
		return false, err
	}

	return s.deliverCode(ctx, user, code), nil
}

// GetUser carga el usuario por id.
func (s *AuthService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

type ProfileInput struct {
	FullName       string
	Gender         string
	DOB            *time.Time
	Phone          string
	Address        string
	GuardianName   string
	GuardianPhone  string
	School         string
	ClassLevel     string
	Subjects       []string
	Bio            string
	ProfilePicture string
}

// UpdateProfile mezcla solo los campos provistos; los vacios conservan el
// valor anterior.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, input ProfileInput) (domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	mergeString(&user.FullName, input.FullName)
	mergeString(&user.Gender, input.Gender)
	mergeString(&user.Phone, input.Phone)
	mergeString(&user.Address, input.Address)
	mergeString(&user.GuardianName, input.GuardianName)
	mergeString(&user.GuardianPhone, input.GuardianPhone)
	mergeString(&user.School, input.School)
	mergeString(&user.ClassLevel, input.ClassLevel)
	mergeString(&user.Bio, input.Bio)
	mergeString(&user.ProfilePicture, input.ProfilePicture)
	if input.DOB != nil {
		user.DOB = input.DOB
	}
	if input.Subjects != nil {
		user.Subjects = input.Subjects
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// SeedAdmin asegura que exista el usuario admin configurado. No toca
// registros existentes.
func (s *AuthService) SeedAdmin(ctx context.Context, emailAddr, password string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}
	admin := domain.User{
		ID:           uuid.NewString(),
		FullName:     "Admin",
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		Role:         domain.RoleAdmin,
		Subjects:     []string{},
		Verified:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil
		}
		return err
	}
	if s.logger != nil {
		s.logger.Info("admin user seeded", zap.String("email", emailAddr))
	}
	return nil
}

// deliverCode envia el correo de verificacion y reporta si salio bien.
func (s *AuthService) deliverCode(ctx context.Context, user domain.User, code string) bool {
	if s.emailSender == nil {
		return false
	}
	verifyURL := ""
	if s.tokens != nil {
		token, err := s.tokens.GenerateVerifyToken(user)
		if err == nil {
			verifyURL = fmt.Sprintf("%s/api/auth/verify-email?token=%s", s.baseURL, token)
		}
	}
	if err := s.emailSender.SendVerificationCode(ctx, user.Email, code, verifyURL); err != nil {
		if s.logger != nil {
			s.logger.Warn("send verification email failed", zap.Error(err), zap.String("email", user.Email))
		}
		return false
	}
	return true
}

// generateVerificationCode produce un codigo de 8 digitos desde
// crypto/rand junto con su timestamp de emision.
func generateVerificationCode() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000000))
	if err != nil {
		return "", time.Time{}, err
	}
	code := fmt.Sprintf("%08d", n.Int64()+10000000)
	return code, time.Now().UTC(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mergeString(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = strings.TrimSpace(src)
	}
}
