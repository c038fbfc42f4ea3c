package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeBearer is the only token type handed out.
const TokenTypeBearer = "Bearer"

// Claims is the JWT payload for both access and refresh tokens.
type Claims struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	User  *User
	Token string
}

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50" example:"johndoe"`
	Email     string `json:"email" validate:"required,email,max=100" example:"john.doe@example.com"`
	Password  string `json:"password" validate:"required,min=6,max=72" example:"Str0ngP@ss!"` // bcrypt truncates past 72 bytes.
	FirstName string `json:"firstName" validate:"max=50" example:"John"`
	LastName  string `json:"lastName" validate:"max=50" example:"Doe"`
}

// LoginRequest accepts either a username or an email as identifier.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required" example:"johndoe"`
	Password        string `json:"password" validate:"required" example:"Str0ngP@ss!"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	AccessToken     string       `json:"accessToken" example:"eyJhbGciOiJI..."`
	RefreshToken    string       `json:"refreshToken" example:"eyJhbGciOiJI..."`
	TokenType       string       `json:"tokenType" example:"Bearer"`
	ExpiresInMillis int64        `json:"expiresInMillis" example:"900000"`
	Profile         *ProfileView `json:"profile"`
}
