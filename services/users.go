package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"chirp/db"
	"chirp/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type UserService struct {
	orm           *gorm.DB
	jwtSecret     []byte
	tokenTTL      time.Duration
	defaultAvatar string
	now           func() time.Time
}

func NewUserService(orm *gorm.DB, jwtSecret string, tokenTTL time.Duration, defaultAvatar string) *UserService {
	return &UserService{
		orm:           orm,
		jwtSecret:     []byte(jwtSecret),
		tokenTTL:      tokenTTL,
		defaultAvatar: defaultAvatar,
		now:           time.Now,
	}
}

// Register создает пользователя с argon2id-хешем пароля
func (us *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var alreadyExists int64
	err := db.ReadOnly(ctx, us.orm).Model(&models.User{}).Where("username = ?", username).Count(&alreadyExists).Error
	if err != nil {
		log.Println("Error checking if user exists:", err)
		return nil, err
	}
	if alreadyExists > 0 {
		return nil, ErrUserExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       username,
		Password:       passwordHash,
		ProfilePicture: us.avatarFor(username),
	}
	if err := db.Write(ctx, us.orm).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("DEBUG: Registered user id=%d username=%s", user.ID, user.Username)
	return user, nil
}

func (us *UserService) avatarFor(username string) string {
	if strings.Contains(us.defaultAvatar, "%s") {
		return fmt.Sprintf(us.defaultAvatar, username)
	}
	return us.defaultAvatar
}

// Authenticate проверяет пароль и возвращает пользователя
func (us *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := db.ReadOnly(ctx, us.orm).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (us *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := db.ReadOnly(ctx, us.orm).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// IssueToken выпускает HS256 JWT с id пользователя в sub
func (us *UserService) IssueToken(user *models.User) (string, error) {
	now := us.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(us.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(us.jwtSecret)
}

// ParseToken validates tok and returns the user id from its subject.
func (us *UserService) ParseToken(tok string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return us.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(us.now),
	)
	if err != nil || !t.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func checkPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, want) == 1
}
