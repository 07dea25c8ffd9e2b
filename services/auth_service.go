package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"codesync/models"
	"codesync/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService handles email/password sign-up and sign-in and issues the JWTs
// the rest of the API consumes. The sync core never sees credentials; it only
// receives the opaque user id.
type AuthService struct {
	userCollection *mongo.Collection
	jwtSecret      string
	tokenTTL       time.Duration
}

func NewAuthService(db *mongo.Database, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userCollection: db.Collection("users"),
		jwtSecret:      jwtSecret,
		tokenTTL:       tokenTTL,
	}
}

// SignUp registers a new account and returns the user plus a signed token.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := utils.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, "", err
	}
	if name == "" {
		return nil, "", ErrNameRequired
	}

	count, err := s.userCollection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.userCollection.InsertOne(ctx, user); err != nil {
		return nil, "", &StoreWriteError{Op: "create user", Err: err}
	}

	token, err := utils.GenerateJWTTokenWithSecret(&user, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// SignIn authenticates an existing account.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, "", ErrInvalidCredentials
	} else if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateJWTTokenWithSecret(&user, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	err = s.userCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return &user, nil
}

// LookupProfile implements ProfileLookup for the room member roster.
func (s *AuthService) LookupProfile(ctx context.Context, uid string) (*models.Profile, error) {
	user, err := s.GetUserByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		UID:   user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
	}, nil
}
