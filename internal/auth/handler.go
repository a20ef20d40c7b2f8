package auth

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/believe-consult/backend/internal/approvals"
	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/internal/notify"
	"github.com/believe-consult/backend/pkg/queue"
	"github.com/believe-consult/backend/pkg/response"
	"github.com/believe-consult/backend/pkg/utils"
)

// SendOTPRequest is the body for POST /auth/send-otp.
type SendOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Age      int    `json:"age" binding:"required,gte=1,lte=120"`
	Password string `json:"password" binding:"required,min=8"`
	OTP      string `json:"otp" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// Handler handles authentication HTTP endpoints.
type Handler struct {
	repo       *Repository
	jwt        *JWTService
	approvals  *approvals.Service
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, approvalSvc *approvals.Service, dispatcher notify.Dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, approvals: approvalSvc, dispatcher: dispatcher, logger: logger}
}

// SendOTP handles POST /auth/send-otp. Creates a durable approval record
// and queues the code for email delivery.
func (h *Handler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = models.ApprovalPurposeRegister
	}
	if purpose != models.ApprovalPurposeRegister && purpose != models.ApprovalPurposeResetPassword {
		response.BadRequest(c, "unknown purpose")
		return
	}

	code, err := h.approvals.Issue(c.Request.Context(), req.Email, purpose)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.dispatcher.Dispatch(c.Request.Context(), queue.NotificationPayload{
		Event:          models.EventOTP,
		RecipientEmail: req.Email,
		Subject:        "Your verification code",
		BodyHTML:       fmt.Sprintf("<h2>Verification</h2><p>Your code is: <b>%s</b></p><p>Do not share it. It is valid for 5 minutes.</p>", code),
	})
	response.OK(c, gin.H{"message": "code sent"})
}

// Register handles POST /auth/register. The OTP must be redeemed before
// the account is created; redemption is single-shot.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.approvals.Redeem(c.Request.Context(), req.Email, models.ApprovalPurposeRegister, req.OTP); err != nil {
		response.FromError(c, err)
		return
	}

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.ServiceUnavailable(c, "could not check account")
		return
	}
	if existing != nil {
		response.BadRequest(c, "account already exists")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "could not create account")
		return
	}
	u := &models.User{
		Email:    req.Email,
		Password: hashed,
		FullName: req.FullName,
		Age:      req.Age,
		Role:     models.RoleUser,
	}
	if err := h.repo.Create(c.Request.Context(), u); err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.ServiceUnavailable(c, "could not create account")
		return
	}
	response.Created(c, u.ToPublic())
}

// Login handles POST /auth/login. Role comes from the stored account,
// never from the request.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.ServiceUnavailable(c, "could not load account")
		return
	}
	if u == nil || !utils.CheckPassword(req.Password, u.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	token, err := h.jwt.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		h.logger.Error("jwt generation failed", zap.Error(err))
		response.Internal(c, "could not sign in")
		return
	}
	response.OK(c, gin.H{"token": token, "user": u.ToPublic()})
}

// ResetPassword handles POST /auth/reset-password (OTP gated).
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.approvals.Redeem(c.Request.Context(), req.Email, models.ApprovalPurposeResetPassword, req.OTP); err != nil {
		response.FromError(c, err)
		return
	}
	u, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.ServiceUnavailable(c, "could not load account")
		return
	}
	if u == nil {
		response.NotFound(c, "no account found with this email")
		return
	}
	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "could not reset password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), req.Email, hashed); err != nil {
		response.ServiceUnavailable(c, "could not reset password")
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.ServiceUnavailable(c, "could not list users")
		return
	}
	response.OK(c, list)
}
