package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"menu-planner/internal/app"
	"menu-planner/internal/notify"
	"menu-planner/internal/planner"
)

var testSecret = []byte("test-secret")

type fakeMenus struct {
	week      planner.WeekMenu
	generated bool
	busy      bool
	failWith  error
	prefs     map[string]planner.Preferences
	lastOwner string
}

func (f *fakeMenus) Generate(_ context.Context, owner string) (planner.WeekMenu, error) {
	f.lastOwner = owner
	if f.busy {
		return planner.WeekMenu{}, app.ErrRegenerationInFlight
	}
	f.generated = true
	return f.week, nil
}

func (f *fakeMenus) RegenerateMeal(_ context.Context, owner string, day int, kind planner.MealKind) (planner.Meal, error) {
	f.lastOwner = owner
	if f.busy {
		return planner.Meal{}, app.ErrRegenerationInFlight
	}
	if !f.generated {
		return planner.Meal{}, app.ErrNoMenu
	}
	if kind == planner.MealDinner {
		f.week[day].Dinner = planner.NewCourse("Chole", "Tinda")
	}
	return f.week[day], nil
}

func (f *fakeMenus) RegenerateComponent(_ context.Context, owner string, day int, kind planner.MealKind, comp planner.Component) (planner.Course, error) {
	f.lastOwner = owner
	if f.busy {
		return planner.Course{}, app.ErrRegenerationInFlight
	}
	if kind == planner.MealBreakfast {
		return planner.Course{}, planner.ErrInvalidMealKind
	}
	f.week[day].Lunch[1] = "Tinda"
	return f.week[day].Lunch, nil
}

func (f *fakeMenus) DisplayWeek(_ context.Context, owner string, today int) ([]planner.DisplayDay, error) {
	f.lastOwner = owner
	if f.failWith != nil {
		return nil, f.failWith
	}
	if !f.generated {
		return nil, app.ErrNoMenu
	}
	return planner.DisplayOrder(f.week, today), nil
}

func (f *fakeMenus) Day(_ context.Context, _ string, day int) (planner.Meal, error) {
	if !f.generated {
		return planner.Meal{}, app.ErrNoMenu
	}
	return f.week[day], nil
}

func (f *fakeMenus) ClearWeek(context.Context, string) error {
	f.generated = false
	return nil
}

func (f *fakeMenus) ClearHistory(context.Context, string) error {
	if f.busy {
		return app.ErrRegenerationInFlight
	}
	return nil
}

func (f *fakeMenus) Preferences(_ context.Context, owner string) (planner.Preferences, error) {
	return f.prefs[owner], nil
}

func (f *fakeMenus) SavePreferences(_ context.Context, owner string, p planner.Preferences) (planner.Preferences, error) {
	p = p.Normalize()
	f.prefs[owner] = p
	return p, nil
}

type fakeInbox struct {
	items []notify.Notification
}

func (f *fakeInbox) ListRecent(context.Context, string) ([]notify.Notification, error) {
	return f.items, nil
}

func (f *fakeInbox) MarkAllRead(context.Context, string) (int64, error) {
	return int64(len(f.items)), nil
}

func sampleWeek() planner.WeekMenu {
	var week planner.WeekMenu
	for day := range week {
		week[day] = planner.Meal{
			Breakfast: "Poha",
			Lunch:     planner.NewCourse("Rajma", "Bhindi"),
			Dinner:    planner.NewCourse("Moong Dal", "Lauki"),
		}
	}
	return week
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeMenus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	menus := &fakeMenus{week: sampleWeek(), prefs: make(map[string]planner.Preferences)}
	router := NewRouter(Deps{
		Menus:          menus,
		Inbox:          &fakeInbox{items: []notify.Notification{{ID: "n1", Title: "Check out your next meals"}}},
		Today:          func() int { return 2 },
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"*"},
		DataDir:        t.TempDir(),
		Logger:         zap.NewNop(),
	})
	return router, menus
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := IssueToken(testSecret, "alice", time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
		if body := decode[ErrorResponse](t, rec); body.Code != ErrCodeUnauthorized {
			t.Errorf("Expected %s, got %+v", ErrCodeUnauthorized, body)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, _ := IssueToken([]byte("other"), "alice", time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		token, _ := IssueToken(testSecret, "alice", -time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("HealthIsPublic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
		if body := decode[HealthResponse](t, rec); body.Status != "ok" {
			t.Errorf("Unexpected health %+v", body)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("Expected a request id header")
		}
	})
}

func TestMenuRoutes(t *testing.T) {
	router, menus := newTestRouter(t)

	t.Run("GetBeforeGenerate", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/menu", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("Generate", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/menu/generate", "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[WeekResponse](t, rec)
		if body.Today != 2 || len(body.Days) != 7 || body.Days[0].Name != "Wednesday" {
			t.Errorf("Expected a Wednesday-first week, got today=%d first=%+v", body.Today, body.Days[0])
		}
		if menus.lastOwner != "alice" {
			t.Errorf("Expected the token subject as owner, got %q", menus.lastOwner)
		}
	})

	t.Run("GetWithToday", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/menu?today=6", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if body := decode[WeekResponse](t, rec); body.Days[0].Name != "Sunday" {
			t.Errorf("Expected Sunday first, got %s", body.Days[0].Name)
		}
		if rec := do(t, router, http.MethodGet, "/api/v1/menu?today=9", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for today=9, got %d", rec.Code)
		}
	})

	t.Run("RegenerateMeal", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/menu/days/fri/meals/dinner/regenerate", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[DayResponse](t, rec)
		if body.Day.Index != 4 || body.Day.Meal.Dinner.Primary() != "Chole" {
			t.Errorf("Unexpected day %+v", body.Day)
		}
	})

	t.Run("RegenerateComponent", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/menu/days/1/meals/lunch/components/vegetable/regenerate", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[DayResponse](t, rec)
		if body.Course == nil || body.Course.Vegetable() != "Tinda" {
			t.Errorf("Unexpected course %+v", body.Course)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		paths := []string{
			"/api/v1/menu/days/someday/meals/lunch/regenerate",
			"/api/v1/menu/days/1/meals/brunch/regenerate",
			"/api/v1/menu/days/1/meals/lunch/components/rice/regenerate",
			"/api/v1/menu/days/1/meals/breakfast/components/primary/regenerate",
		}
		for _, p := range paths {
			rec := do(t, router, http.MethodPost, p, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", p, rec.Code)
			}
			if body := decode[ErrorResponse](t, rec); body.Code != ErrCodeInvalidRequest {
				t.Errorf("%s: expected %s, got %+v", p, ErrCodeInvalidRequest, body)
			}
		}
	})

	t.Run("Busy", func(t *testing.T) {
		menus.busy = true
		defer func() { menus.busy = false }()
		rec := do(t, router, http.MethodPost, "/api/v1/menu/days/0/meals/lunch/regenerate", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d", rec.Code)
		}
		if body := decode[ErrorResponse](t, rec); body.Code != ErrCodeRegenerationInFlight {
			t.Errorf("Expected %s, got %+v", ErrCodeRegenerationInFlight, body)
		}
		if rec := do(t, router, http.MethodDelete, "/api/v1/menu/history", ""); rec.Code != http.StatusConflict {
			t.Errorf("Expected 409 for history clear, got %d", rec.Code)
		}
	})

	t.Run("Nutrition", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/menu/days/0/nutrition", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		body := decode[NutritionResponse](t, rec)
		if body.Total.Calories <= 0 || !strings.Contains(body.Summary, "kcal") {
			t.Errorf("Unexpected nutrition %+v", body)
		}
		if len(body.Unknown) != 1 || body.Unknown[0] != "Bhindi" {
			t.Errorf("Expected Bhindi as unknown, got %v", body.Unknown)
		}
	})

	t.Run("Export", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/menu/export?name=Asha", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Expected HTML, got %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "Asha&#39;s 7-Day Meal Plan") {
			t.Error("Expected the owner name in the title")
		}
	})

	t.Run("InternalError", func(t *testing.T) {
		menus.failWith = errors.New("database is locked")
		defer func() { menus.failWith = nil }()
		rec := do(t, router, http.MethodGet, "/api/v1/menu", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "locked") {
			t.Error("Expected internal details to stay out of the response")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if rec := do(t, router, http.MethodDelete, "/api/v1/menu", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d", rec.Code)
		}
		if rec := do(t, router, http.MethodGet, "/api/v1/menu", ""); rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 after delete, got %d", rec.Code)
		}
	})
}

func TestPreferenceRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPut, "/api/v1/preferences",
		`{"breakfast":[" Poha ","Poha","Upma"],"protein_legume_a":["Rajma"],"vegetable":["Bhindi"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	saved := decode[planner.Preferences](t, rec)
	if len(saved.Breakfast) != 2 {
		t.Errorf("Expected normalized breakfast list, got %v", saved.Breakfast)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/preferences", "")
	if got := decode[planner.Preferences](t, rec); len(got.ProteinLegumeA) != 1 {
		t.Errorf("Expected the saved preferences, got %+v", got)
	}

	if rec := do(t, router, http.MethodPut, "/api/v1/preferences", `{"breakfast":`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed body, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/preferences/catalog", "")
	if got := decode[planner.Preferences](t, rec); len(got.Breakfast) == 0 {
		t.Error("Expected a populated catalog")
	}
}

func TestNotificationRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/notifications", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decode[struct {
		Notifications []notify.Notification `json:"notifications"`
	}](t, rec)
	if len(body.Notifications) != 1 || body.Notifications[0].ID != "n1" {
		t.Errorf("Unexpected notifications %+v", body.Notifications)
	}

	rec = do(t, router, http.MethodPost, "/api/v1/notifications/read", "")
	if got := decode[map[string]int64](t, rec); got["updated"] != 1 {
		t.Errorf("Expected 1 updated, got %v", got)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{app.ErrRegenerationInFlight, http.StatusConflict},
		{app.ErrNoMenu, http.StatusNotFound},
		{planner.ErrInvalidDay, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := mapError(tt.err).Status; got != tt.status {
			t.Errorf("mapError(%v) = %d, expected %d", tt.err, got, tt.status)
		}
	}
}
