package utils

import (
	"testing"
	"time"

	"codesync/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Email: "dev@example.com",
		Name:  "Dev",
	}
}

func TestJWTRoundTrip(t *testing.T) {
	user := testUser()

	token, err := GenerateJWTTokenWithSecret(user, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyJWTTokenWithSecret(token, "test-secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("UserID = %s, want %s", claims.UserID, user.ID.Hex())
	}
	if claims.Email != user.Email || claims.Name != user.Name {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWTTokenWithSecret(testUser(), "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := VerifyJWTTokenWithSecret(token, "other-secret"); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWTTokenWithSecret(testUser(), "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := VerifyJWTTokenWithSecret(token, "test-secret"); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestJWTGarbage(t *testing.T) {
	if _, err := VerifyJWTTokenWithSecret("not-a-token", "test-secret"); err == nil {
		t.Fatal("garbage string verified")
	}
}
