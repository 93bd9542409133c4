package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/vlecture/vlecture-api/internal/handler"    // handlers that implement the endpoints
	"github.com/vlecture/vlecture-api/internal/middleware" // access-token middleware for protected routes
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the identity-lifecycle and email-verification
// routes. Unauthenticated operations live under /v1/auth and
// /v1/verification; protected endpoints live under /v1 behind the
// access-token middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v *handler.VerificationHandler, jwtSecret string, users middleware.UserLookup) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Logout takes the access token from the Authorization header but does
	// not go through the auth middleware: a signature-expired token should
	// still be able to terminate its own session.
	g.POST("/logout", a.Logout)
	// Renew issues a new access token without rotating the refresh token.
	g.POST("/renew", a.Renew)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	ver := e.Group("/v1/verification")
	ver.POST("/send", v.Send)
	ver.POST("/check", v.Check)

	auth := e.Group("/v1")
	auth.Use(middleware.Auth(jwtSecret, users))
	auth.GET("/me", a.Me)
}

// RegisterStudy registers the protected note-study endpoints: flashcard
// generation, audio upload URLs and transcription jobs.
func RegisterStudy(e *echo.Echo, s *handler.StudyHandler, jwtSecret string, users middleware.UserLookup) {
	g := e.Group("/v1")
	g.Use(middleware.Auth(jwtSecret, users))
	g.POST("/flashcards/generate", s.GenerateFlashcards)
	g.POST("/uploads/audio", s.PresignAudioUpload)
	g.POST("/transcriptions", s.StartTranscription)
}
