package server

import (
	"bigvyapaar/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Register creates an account and returns a session token for it.
// @Summary Register
// @Description Create an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,phone_number=string,password=string} true "Registration request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username:    req.Username,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.authService.IssueToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user.Public(),
	})
}

// Login exchanges a phone number and password for a session.
// @Summary Login
// @Description Exchange a phone number and password for a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{phone_number=string,password=string} true "Login credentials"
// @Success 200 {object} service.Session
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	ctx := c.UserContext()
	user, err := s.authService.Login(ctx, req.PhoneNumber, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	token, err := s.authService.IssueToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	session, err := s.authService.Session(ctx, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	session.Token = token
	return c.JSON(session)
}

// GetMe returns the caller's profile, the product list and a fresh
// notification access token.
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} service.Session
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	session, err := s.authService.Session(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}
