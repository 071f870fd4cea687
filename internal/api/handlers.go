package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"menu-planner/internal/export"
	"menu-planner/internal/metrics"
	"menu-planner/internal/notify"
	"menu-planner/internal/nutrition"
	"menu-planner/internal/planner"
	"menu-planner/internal/preferences"
)

type handlers struct {
	deps Deps
}

// WeekResponse is a week in today-first order.
type WeekResponse struct {
	Today int                  `json:"today"`
	Days  []planner.DisplayDay `json:"days"`
}

// DayResponse is a single regenerated day.
type DayResponse struct {
	Day    planner.DisplayDay `json:"day"`
	Course *planner.Course    `json:"course,omitempty"`
}

// NutritionResponse is the rough estimate for one day.
type NutritionResponse struct {
	Day     planner.DisplayDay  `json:"day"`
	Total   nutrition.Nutrition `json:"total"`
	Unknown []string            `json:"unknown"`
	Summary string              `json:"summary"`
}

// HealthResponse reports liveness and runtime stats.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Runtime   metrics.SysHealth `json:"runtime"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Runtime:   metrics.GetSysHealth(h.deps.DataDir),
	})
}

func (h *handlers) getPreferences(c *gin.Context) {
	prefs, err := h.deps.Menus.Preferences(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *handlers) putPreferences(c *gin.Context) {
	var prefs planner.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		respondError(c, badRequest(fmt.Errorf("invalid preferences body: %w", err)))
		return
	}
	saved, err := h.deps.Menus.SavePreferences(c.Request.Context(), ownerID(c), prefs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handlers) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, preferences.Catalog())
}

// today returns the ?today= override or the server's current day.
func (h *handlers) today(c *gin.Context) (int, error) {
	raw := c.Query("today")
	if raw == "" {
		return h.deps.Today(), nil
	}
	day, err := strconv.Atoi(raw)
	if err != nil || day < 0 || day >= planner.DaysInWeek {
		return 0, badRequest(fmt.Errorf("%w: today=%q", planner.ErrInvalidDay, raw))
	}
	return day, nil
}

func (h *handlers) writeWeek(c *gin.Context, status int) {
	today, err := h.today(c)
	if err != nil {
		respondError(c, err)
		return
	}
	days, err := h.deps.Menus.DisplayWeek(c.Request.Context(), ownerID(c), today)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, WeekResponse{Today: today, Days: days})
}

func (h *handlers) getMenu(c *gin.Context) {
	h.writeWeek(c, http.StatusOK)
}

func (h *handlers) generate(c *gin.Context) {
	if _, err := h.deps.Menus.Generate(c.Request.Context(), ownerID(c)); err != nil {
		respondError(c, err)
		return
	}
	h.writeWeek(c, http.StatusCreated)
}

func (h *handlers) deleteMenu(c *gin.Context) {
	if err := h.deps.Menus.ClearWeek(c.Request.Context(), ownerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) clearHistory(c *gin.Context) {
	if err := h.deps.Menus.ClearHistory(c.Request.Context(), ownerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func dayParam(c *gin.Context) (int, error) {
	day, err := planner.ParseDay(c.Param("day"))
	if err != nil {
		return 0, badRequest(err)
	}
	return day, nil
}

func mealParam(c *gin.Context) (planner.MealKind, error) {
	kind, err := planner.ParseMealKind(c.Param("meal"))
	if err != nil {
		return "", badRequest(err)
	}
	return kind, nil
}

func (h *handlers) dayResponse(c *gin.Context, day int) (planner.DisplayDay, error) {
	meal, err := h.deps.Menus.Day(c.Request.Context(), ownerID(c), day)
	if err != nil {
		return planner.DisplayDay{}, err
	}
	return planner.DisplayDay{Index: day, Name: planner.DayName(day), Meal: meal}, nil
}

func (h *handlers) regenerateMeal(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	kind, err := mealParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	meal, err := h.deps.Menus.RegenerateMeal(c.Request.Context(), ownerID(c), day, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DayResponse{Day: planner.DisplayDay{Index: day, Name: planner.DayName(day), Meal: meal}})
}

func (h *handlers) regenerateComponent(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	kind, err := mealParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	comp, err := planner.ParseComponent(c.Param("component"))
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	course, err := h.deps.Menus.RegenerateComponent(c.Request.Context(), ownerID(c), day, kind, comp)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := h.dayResponse(c, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DayResponse{Day: d, Course: &course})
}

func (h *handlers) dayNutrition(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := h.dayResponse(c, day)
	if err != nil {
		respondError(c, err)
		return
	}
	total, unknown := nutrition.SumWithUnknown(d.Meal.Items())
	if unknown == nil {
		unknown = []string{}
	}
	c.JSON(http.StatusOK, NutritionResponse{
		Day:     d,
		Total:   total,
		Unknown: unknown,
		Summary: nutrition.FormatSummary(total, unknown),
	})
}

func (h *handlers) exportMenu(c *gin.Context) {
	today, err := h.today(c)
	if err != nil {
		respondError(c, err)
		return
	}
	days, err := h.deps.Menus.DisplayWeek(c.Request.Context(), ownerID(c), today)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	err = export.WriteHTML(&buf, days, export.Options{
		OwnerName:     c.Query("name"),
		WithNutrition: c.Query("nutrition") != "false",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *handlers) listNotifications(c *gin.Context) {
	list, err := h.deps.Inbox.ListRecent(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []notify.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *handlers) markNotificationsRead(c *gin.Context) {
	n, err := h.deps.Inbox.MarkAllRead(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
