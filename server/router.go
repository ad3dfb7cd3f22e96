package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	errs "github.com/nagarsevak/civicseva/errors"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	s.defineRoutes(r)

	return r
}

// limitComplaintCreation throttles repeat filings from the same
// account: 5 complaints per minute per user.
func limitComplaintCreation(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler:   errs.ErrorHandler,
		KeyFunc:        complaintRateKey,
		BeforeResponse: nil,
	})
}

func complaintRateKey(c *gin.Context) string {
	if userID := c.GetString("userID"); userID != "" {
		return userID
	}
	return c.ClientIP()
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limitCreate := limitComplaintCreation(store)

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/citizen/register", s.handleCitizenRegister())
	apirouter.POST("/auth/citizen/login", s.handleCitizenLogin())
	apirouter.POST("/auth/municipal/login", s.handleMunicipalLogin())
	apirouter.GET("/geocode", s.handleReverseGeocode())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/me", s.handleShowProfile())
	authorized.POST("/me/verify-mobile", s.handleVerifyMobile())

	authorized.POST("/complaints", limitCreate, s.handleCreateComplaint())
	authorized.GET("/complaints/mine", s.handleGetMyComplaints())
	authorized.GET("/complaints/date/:date", s.handleGetComplaintsByDate())
	authorized.GET("/complaints/:id", s.handleGetComplaint())

	municipal := authorized.Group("/")
	municipal.Use(s.MunicipalOnly())
	municipal.GET("/complaints", s.handleGetAllComplaints())
	municipal.PUT("/complaints/:id/status", s.handleUpdateStatus())
	municipal.POST("/complaints/:id/repair-images", s.handleAddRepairImages())
	municipal.DELETE("/complaints/:id", s.handleDeleteComplaint())
}
