package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RecordingMailer captures outgoing mail instead of talking SMTP.
type RecordingMailer struct {
	failSend bool
	to       string
	subject  string
	body     string
}

func (m *RecordingMailer) Send(to, subject, body string) error {
	if m.failSend {
		return errors.New("smtp unavailable")
	}
	m.to = to
	m.subject = subject
	m.body = body
	return nil
}

type AuthHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	mailer *RecordingMailer
	users  services.UserService
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(&models.User{}, &models.Label{}, &models.Task{}))
	suite.db = db

	cfg := &config.Config{}
	cfg.Server.BaseURL = "http://localhost:8080"
	cfg.Auth.TokenTTL = time.Hour

	suite.mailer = &RecordingMailer{}
	suite.users = services.NewUserService(bcrypt.MinCost, 10*time.Minute)
	tokens := services.NewTokenService("test-secret", time.Hour)

	handler := handlers.NewAuthHandler(db, suite.users, tokens, suite.mailer, cfg)

	router := gin.New()
	router.Use(middleware.ErrorRenderer(zap.NewNop(), false))

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/logout", handler.Logout)
		auth.POST("/forgotPassword", handler.ForgotPassword)
		auth.PUT("/resetPassword/:token", handler.ResetPassword)
		auth.DELETE("/deleteMe", middleware.AuthGate(db, tokens, suite.users, false), handler.DeleteMe)
	}
	suite.router = router
}

func (suite *AuthHandlerTestSuite) postJSON(path string, payload gin.H, configure func(*http.Request)) *httptest.ResponseRecorder {
	return suite.doJSON("POST", path, payload, configure)
}

func (suite *AuthHandlerTestSuite) doJSON(method, path string, payload gin.H, configure func(*http.Request)) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		suite.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, path, &body)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if configure != nil {
		configure(req)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlerTestSuite) register(email string) *httptest.ResponseRecorder {
	return suite.postJSON("/api/v1/auth/register", gin.H{
		"name":            "Test User",
		"email":           email,
		"password":        "password123",
		"confirmPassword": "password123",
	}, nil)
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	return nil
}

func (suite *AuthHandlerTestSuite) TestRegisterSetsSession() {
	w := suite.register("new@example.com")

	suite.Equal(http.StatusCreated, w.Code)
	suite.Contains(w.Body.String(), "new@example.com")
	suite.NotContains(w.Body.String(), "password123", "password must never appear in a response")

	cookie := sessionCookie(w)
	suite.Require().NotNil(cookie, "registration should log the user in")
	suite.NotEmpty(cookie.Value)
}

func (suite *AuthHandlerTestSuite) TestRegisterPasswordMismatch() {
	w := suite.postJSON("/api/v1/auth/register", gin.H{
		"name":            "Test User",
		"email":           "mismatch@example.com",
		"password":        "password123",
		"confirmPassword": "different456",
	}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Passwords do not match")
}

func (suite *AuthHandlerTestSuite) TestRegisterDuplicateEmail() {
	suite.Equal(http.StatusCreated, suite.register("dup@example.com").Code)

	w := suite.register("dup@example.com")
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *AuthHandlerTestSuite) TestLogin() {
	suite.register("login@example.com")

	w := suite.postJSON("/api/v1/auth/login", gin.H{
		"email":    "login@example.com",
		"password": "password123",
	}, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.NotNil(sessionCookie(w))
}

func (suite *AuthHandlerTestSuite) TestLoginWrongPassword() {
	suite.register("wrongpw@example.com")

	w := suite.postJSON("/api/v1/auth/login", gin.H{
		"email":    "wrongpw@example.com",
		"password": "not-the-password",
	}, nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Contains(w.Body.String(), "Incorrect email or password")
}

func (suite *AuthHandlerTestSuite) TestLogoutClearsCookie() {
	w := suite.postJSON("/api/v1/auth/logout", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	suite.Require().NotNil(cookie)
	suite.True(cookie.MaxAge < 0, "logout should expire the session cookie")
}

func (suite *AuthHandlerTestSuite) TestForgotPasswordUnknownEmail() {
	w := suite.postJSON("/api/v1/auth/forgotPassword", gin.H{"email": "nobody@example.com"}, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AuthHandlerTestSuite) TestPasswordResetFlow() {
	suite.register("reset@example.com")

	w := suite.postJSON("/api/v1/auth/forgotPassword", gin.H{"email": "reset@example.com"}, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("reset@example.com", suite.mailer.to)

	// The mail carries the raw token as the link's last segment.
	parts := strings.Split(suite.mailer.body, "/resetPassword/")
	suite.Require().Len(parts, 2)
	rawToken := parts[1]

	w = suite.doJSON("PUT", "/api/v1/auth/resetPassword/"+rawToken, gin.H{
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	// Old password dead, new password works.
	w = suite.postJSON("/api/v1/auth/login", gin.H{"email": "reset@example.com", "password": "password123"}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.postJSON("/api/v1/auth/login", gin.H{"email": "reset@example.com", "password": "brand-new-pass"}, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *AuthHandlerTestSuite) TestResetPasswordBadToken() {
	w := suite.doJSON("PUT", "/api/v1/auth/resetPassword/bogus-token", gin.H{
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Token is invalid or has expired")
}

func (suite *AuthHandlerTestSuite) TestForgotPasswordMailFailureRollsBack() {
	suite.register("mailfail@example.com")
	suite.mailer.failSend = true

	w := suite.postJSON("/api/v1/auth/forgotPassword", gin.H{"email": "mailfail@example.com"}, nil)
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Contains(w.Body.String(), "error sending the email")

	var user models.User
	suite.Require().NoError(suite.db.Where("email = ?", "mailfail@example.com").First(&user).Error)
	suite.Nil(user.PasswordResetToken, "a failed delivery must not leave a live token")
	suite.Nil(user.PasswordResetExpires)
}

func (suite *AuthHandlerTestSuite) TestDeleteMe() {
	w := suite.register("gone@example.com")
	cookie := sessionCookie(w)
	suite.Require().NotNil(cookie)

	w = suite.doJSON("DELETE", "/api/v1/auth/deleteMe", gin.H{"password": "password123"}, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	suite.Equal(http.StatusNoContent, w.Code)
	suite.Empty(w.Body.String(), "a 204 carries no body")

	var count int64
	suite.db.Model(&models.User{}).Where("email = ?", "gone@example.com").Count(&count)
	suite.Zero(count)
}

func (suite *AuthHandlerTestSuite) TestDeleteMeWrongPassword() {
	w := suite.register("stays@example.com")
	cookie := sessionCookie(w)
	suite.Require().NotNil(cookie)

	w = suite.doJSON("DELETE", "/api/v1/auth/deleteMe", gin.H{"password": "wrong"}, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	suite.Equal(http.StatusUnauthorized, w.Code)

	var count int64
	suite.db.Model(&models.User{}).Where("email = ?", "stays@example.com").Count(&count)
	suite.Equal(int64(1), count)
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
