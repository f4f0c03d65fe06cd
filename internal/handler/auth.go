package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/hostel-buddy/internal/middleware"
	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/service"
)

// ImageStore keeps an uploaded image and returns the reference stored on
// the complaint or profile.  assets.DiskStore implements it.
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
}

// AuthHandler bundles dependencies for auth and profile endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	OTP    *service.OTPService
	Images ImageStore
}

func NewAuthHandler(auth *service.AuthService, otp *service.OTPService, images ImageStore) *AuthHandler {
	return &AuthHandler{Auth: auth, OTP: otp, Images: images}
}

// ----- DTOs -----

type registerReq struct {
	FullName        string `json:"fullName" form:"fullName"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	Role            string `json:"role" form:"role"` // student | warden
	RollNumber      string `json:"rollNumber" form:"rollNumber"`
	Department      string `json:"department" form:"department"`
	StaffID         string `json:"staffId" form:"staffId"`
	FieldID         string `json:"fieldId" form:"fieldId"` // older clients send the role attribute here
	Contact         string `json:"contact" form:"contact"`
	Address         string `json:"address" form:"address"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpReq struct {
	Identifier      string `json:"identifier"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type profileReq struct {
	FullName *string `json:"fullName"`
	Contact  *string `json:"contact"`
	Address  *string `json:"address"`
	ImageURL *string `json:"imageUrl"`
}

func bindErr() error {
	return &service.Error{Kind: service.ErrValidation, Msg: "invalid request body"}
}

// Register: create user and return a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return bindErr()
	}
	if req.FieldID != "" {
		switch strings.ToLower(strings.TrimSpace(req.Role)) {
		case string(model.RoleStudent):
			if req.RollNumber == "" {
				req.RollNumber = req.FieldID
			}
		case string(model.RoleWarden):
			if req.StaffID == "" {
				req.StaffID = req.FieldID
			}
		}
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	s, err := h.Auth.Register(ctx, service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		RollNumber:      req.RollNumber,
		Department:      req.Department,
		StaffID:         req.StaffID,
		Contact:         req.Contact,
		Address:         req.Address,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "registration successful", s)
}

// Login: verify credentials and return a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return bindErr()
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "login successful", s)
}

// SendOTP issues a password reset code for the account behind identifier.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return bindErr()
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.OTP.Issue(ctx, req.Identifier); err != nil {
		return err
	}
	return success(c, http.StatusOK, "OTP sent to registered contact", nil)
}

// VerifyOTP checks a code without consuming it.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return bindErr()
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.OTP.Verify(ctx, req.Identifier, req.OTP); err != nil {
		return err
	}
	return success(c, http.StatusOK, "OTP verified", nil)
}

// ResetPassword consumes a code and sets the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return bindErr()
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.OTP.Consume(ctx, req.Identifier, req.OTP, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return success(c, http.StatusOK, "password reset successfully", nil)
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Auth.Profile(ctx, middleware.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", u)
}

// UpdateMe edits the caller's profile.  It accepts JSON, or a multipart
// form whose optional "image" file replaces the profile picture.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var req profileReq
	if isMultipart(c) {
		req.FullName = formValue(c, "fullName")
		req.Contact = formValue(c, "contact")
		req.Address = formValue(c, "address")
		url, err := saveUpload(c, h.Images)
		if err != nil {
			return err
		}
		if url != "" {
			req.ImageURL = &url
		}
	} else if err := c.Bind(&req); err != nil {
		return bindErr()
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Auth.UpdateProfile(ctx, middleware.CurrentIdentity(c), model.ProfileUpdate{
		FullName: req.FullName,
		Contact:  req.Contact,
		Address:  req.Address,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "profile updated", u)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formValue returns nil when the field is absent from the form.
func formValue(c echo.Context, name string) *string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	vals, ok := form.Value[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// saveUpload stores the optional "image" file and returns its reference,
// or "" when no file was sent.
func saveUpload(c echo.Context, store ImageStore) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", bindErr()
	}
	if store == nil {
		return "", &service.Error{Kind: service.ErrValidation, Msg: "image uploads are not enabled"}
	}
	return store.Save(fh)
}
