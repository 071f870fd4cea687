// Package api exposes the menu engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"menu-planner/internal/notify"
	"menu-planner/internal/planner"
)

// maxBodySize limits request bodies to 1MB.
const maxBodySize = 1 << 20

// MenuService is the part of the app the API drives.
type MenuService interface {
	Generate(ctx context.Context, ownerID string) (planner.WeekMenu, error)
	RegenerateMeal(ctx context.Context, ownerID string, day int, kind planner.MealKind) (planner.Meal, error)
	RegenerateComponent(ctx context.Context, ownerID string, day int, kind planner.MealKind, comp planner.Component) (planner.Course, error)
	DisplayWeek(ctx context.Context, ownerID string, today int) ([]planner.DisplayDay, error)
	Day(ctx context.Context, ownerID string, day int) (planner.Meal, error)
	ClearWeek(ctx context.Context, ownerID string) error
	ClearHistory(ctx context.Context, ownerID string) error
	Preferences(ctx context.Context, ownerID string) (planner.Preferences, error)
	SavePreferences(ctx context.Context, ownerID string, prefs planner.Preferences) (planner.Preferences, error)
}

// Inbox lists and acknowledges stored reminders.
type Inbox interface {
	ListRecent(ctx context.Context, ownerID string) ([]notify.Notification, error)
	MarkAllRead(ctx context.Context, ownerID string) (int64, error)
}

// Deps holds what the router needs.
type Deps struct {
	Menus          MenuService
	Inbox          Inbox
	Today          func() int
	JWTSecret      []byte
	AllowedOrigins []string
	DataDir        string
	Logger         *zap.Logger
	// Webhook, when set, is mounted unauthenticated at POST /webhook.
	Webhook http.HandlerFunc
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	router := gin.New()
	router.Use(Recovery(d.Logger))
	router.Use(requestid.New())
	router.Use(Logger(d.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !containsWildcard(d.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		c.Next()
	})

	h := &handlers{deps: d}

	router.GET("/health", h.health)
	if d.Webhook != nil {
		router.POST("/webhook", gin.WrapF(d.Webhook))
	}

	v1 := router.Group("/api/v1", Auth(d.JWTSecret))
	{
		v1.GET("/preferences", h.getPreferences)
		v1.PUT("/preferences", h.putPreferences)
		v1.GET("/preferences/catalog", h.getCatalog)

		menu := v1.Group("/menu")
		menu.GET("", h.getMenu)
		menu.DELETE("", h.deleteMenu)
		menu.POST("/generate", h.generate)
		menu.GET("/export", h.exportMenu)
		menu.DELETE("/history", h.clearHistory)
		menu.POST("/days/:day/meals/:meal/regenerate", h.regenerateMeal)
		menu.POST("/days/:day/meals/:meal/components/:component/regenerate", h.regenerateComponent)
		menu.GET("/days/:day/nutrition", h.dayNutrition)

		v1.GET("/notifications", h.listNotifications)
		v1.POST("/notifications/read", h.markNotificationsRead)
	}

	return router
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
