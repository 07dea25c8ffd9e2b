package controllers

import (
	"errors"
	"net/http"

	"codesync/services"
	"codesync/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// SignUp registers a new account and returns a token for it.
func (ac *AuthController) SignUp(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	user, token, err := ac.authService.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			utils.ConflictResponse(c, "Email already registered", nil)
		default:
			var writeErr *services.StoreWriteError
			if errors.As(err, &writeErr) {
				utils.BadGatewayResponse(c, "Failed to create account", writeErr.Error())
			} else {
				utils.BadRequestResponse(c, "Invalid sign-up data", err.Error())
			}
		}
		return
	}

	utils.CreatedResponse(c, "Account created successfully", gin.H{
		"token": token,
		"user": gin.H{
			"uid":   user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// SignIn authenticates an existing account.
func (ac *AuthController) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	user, token, err := ac.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.UnauthorizedResponse(c, "Invalid email or password")
		} else {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Sign-in failed", err.Error())
		}
		return
	}

	utils.SuccessResponse(c, "Signed in successfully", gin.H{
		"token": token,
		"user": gin.H{
			"uid":   user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// Me returns the profile behind the presented token.
func (ac *AuthController) Me(c *gin.Context) {
	userID := c.GetString("userIdStr")

	user, err := ac.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User not found")
		} else {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load user", err.Error())
		}
		return
	}

	utils.SuccessResponse(c, "User loaded", gin.H{
		"uid":   user.ID.Hex(),
		"name":  user.Name,
		"email": user.Email,
	})
}
