package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/services"
)

const genericCodeSentMessage = "If an account exists for this email, a verification code has been sent."

// otpCode accepts the code as a JSON number or as a string of digits.
type otpCode int

func (oc *otpCode) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	if len(raw) == 0 || len(raw) > 6 || bytes.Equal(raw, []byte("null")) {
		return errordata.NewValidation("otp", "otp must be a 6 digit code")
	}
	for _, b := range raw {
		if b < '0' || b > '9' {
			return errordata.NewValidation("otp", "otp must be a 6 digit code")
		}
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return errordata.NewValidation("otp", "otp must be a 6 digit code")
	}
	*oc = otpCode(v)
	return nil
}

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email           string  `json:"email"`
		PhoneNumber     *string `json:"phone_number,omitempty"`
		FirstName       string  `json:"first_name"`
		LastName        string  `json:"last_name"`
		Password        string  `json:"password"`
		PasswordConfirm string  `json:"password_confirm"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "You have registered successfully. We have sent you a code to verify your email.",
		"user": gin.H{
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
	})
}

func (ah *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req struct {
		Email string  `json:"email"`
		OTP   otpCode `json:"otp"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.ConfirmEmail(c.Request.Context(), req.Email, int(req.OTP)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email confirmed successfully. You can now log in."})
}

func (ah *AuthHandler) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.ResendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": genericCodeSentMessage})
}

func (ah *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": genericCodeSentMessage})
}

func (ah *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Email              string  `json:"email"`
		OTP                otpCode `json:"otp"`
		NewPassword        string  `json:"new_password"`
		NewPasswordConfirm string  `json:"new_password_confirm"`
	}
	if !bindJSON(c, &req) {
		return
	}
	err := ah.authService.ConfirmPasswordReset(c.Request.Context(), req.Email, int(req.OTP), req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully. Please log in with your new password."})
}

func (ah *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword    string `json:"current_password"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}
	if !bindJSON(c, &req) {
		return
	}
	err := ah.authService.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	accessToken, refreshToken, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !bindJSON(c, &req) {
		return
	}
	accessToken, refreshToken, err := ah.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (ah *AuthHandler) respondTokens(c *gin.Context, accessToken, refreshToken string) {
	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "refresh_token": refreshToken, "expires_in": expiresIn})
}
