package httpapi

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxPasswordBytes = 72

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(passwordBytes)),
	)
}

type signinAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r signinAdminRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type signinUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r signinUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r refreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type signinResponse struct {
	User *models.Principal `json:"user"`
	auth.TokenPair
}

func passwordBytes(value interface{}) error {
	s, _ := value.(string)
	if len(s) > maxPasswordBytes {
		return fmt.Errorf("must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", common.ErrValidation, err)
}

func (s *Server) signupAdmin(c *gin.Context) {
	s.signup(c, s.auth.SignupAdmin)
}

func (s *Server) signupUser(c *gin.Context) {
	s.signup(c, s.auth.SignupUser)
}

func (s *Server) signup(c *gin.Context, fn func(context.Context, services.SignupInput) (*models.Principal, error)) {
	if !s.parseForm(c) {
		return
	}

	req := signupRequest{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}
	if err := req.Validate(); err != nil {
		s.writeError(c, invalid(err))
		return
	}

	in := services.SignupInput{Username: req.Username, Email: req.Email, Password: req.Password}

	file, name, err := formFile(c, "user_profile_image")
	if err != nil {
		s.writeError(c, invalid(err))
		return
	}
	if file != nil {
		defer file.Close()
		in.ProfileImage, in.ProfileImageName = file, name
	}

	p, err := fn(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) signinAdmin(c *gin.Context) {
	var req signinAdminRequest
	if !s.bindJSON(c, &req) {
		return
	}
	res, err := s.auth.SigninAdmin(c.Request.Context(), req.Email, req.Password)
	s.writeSignin(c, res, err)
}

func (s *Server) signinUser(c *gin.Context) {
	var req signinUserRequest
	if !s.bindJSON(c, &req) {
		return
	}
	res, err := s.auth.SigninUser(c.Request.Context(), req.Username, req.Password)
	s.writeSignin(c, res, err)
}

func (s *Server) writeSignin(c *gin.Context, res *services.SigninResult, err error) {
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, signinResponse{User: res.Principal, TokenPair: *res.Tokens})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, identityFrom(c))
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if !s.bindJSON(c, &req) {
		return
	}
	pair, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// bindJSON decodes and validates the body, writing a 400 on failure.
func (s *Server) bindJSON(c *gin.Context, req validation.Validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.writeError(c, invalid(errors.New("malformed JSON body")))
		return false
	}
	if err := req.Validate(); err != nil {
		s.writeError(c, invalid(err))
		return false
	}
	return true
}

// parseForm parses a multipart or urlencoded body, writing 413 when the body
// exceeds the upload limit and 400 for anything else.
func (s *Server) parseForm(c *gin.Context) bool {
	var err error
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		err = c.Request.ParseMultipartForm(multipartMemory)
	} else {
		err = c.Request.ParseForm()
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return false
	}
	s.writeError(c, invalid(errors.New("malformed form body")))
	return false
}

const multipartMemory = 8 << 20

// formFile opens the named upload. A missing field yields a nil file.
func formFile(c *gin.Context, field string) (multipart.File, string, error) {
	if c.Request.MultipartForm == nil {
		return nil, "", nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil
		}
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	return f, fh.Filename, nil
}
