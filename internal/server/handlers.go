package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rahul/outing/internal/agent"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/orchestrator"
	"github.com/rahul/outing/internal/outing"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 50
)

// planBody is the JSON body of the plan and single-agent endpoints.
type planBody struct {
	Prompt   string              `json:"prompt"`
	UserID   string              `json:"userId"`
	Location *outing.Destination `json:"location"`
	Date     string              `json:"date"`
}

func bindPlan(c echo.Context) (planBody, error) {
	var body planBody
	if err := c.Bind(&body); err != nil {
		return body, echo.NewHTTPError(http.StatusBadRequest, "Request body must be JSON.")
	}
	return body, nil
}

func (b planBody) agentRequest() orchestrator.AgentRequest {
	return orchestrator.AgentRequest{Prompt: b.Prompt, Destination: b.Location, EventDate: b.Date}
}

func (s *Server) createPlan(c echo.Context) error {
	body, err := bindPlan(c)
	if err != nil {
		return err
	}
	resp, err := s.plans.RunPlan(c.Request().Context(), orchestrator.Request{
		Prompt:      body.Prompt,
		Destination: body.Location,
		EventDate:   body.Date,
		UserID:      body.UserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) movies(c echo.Context) error {
	body, err := bindPlan(c)
	if err != nil {
		return err
	}
	result, err := s.plans.RunAgent(c.Request().Context(), outing.SubtaskMovie, body.agentRequest())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// restaurants answers with the bare restaurant list, empty when the agent
// produced none.
func (s *Server) restaurants(c echo.Context) error {
	body, err := bindPlan(c)
	if err != nil {
		return err
	}
	result, err := s.plans.RunAgent(c.Request().Context(), outing.SubtaskRestaurant, body.agentRequest())
	if err != nil {
		return err
	}
	list := []normalize.Restaurant{}
	if plan, ok := result.Data.(*agent.RestaurantPlan); ok && plan.Restaurants != nil {
		list = plan.Restaurants
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) dayWeather(c echo.Context) error {
	if s.weather == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Weather is disabled.")
	}
	city := strings.TrimSpace(c.QueryParam("city"))
	if city == "" {
		return outing.NewValidationError("city query param is required")
	}
	date, err := outing.ParseEventDate(c.QueryParam("date"))
	if err != nil {
		return err
	}
	day := time.Now().Format("2006-01-02")
	if date != nil {
		day = date.ISO()
	}
	weather, err := s.weather.DayWeather(c.Request().Context(), city, day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, weather)
}

func historyLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultHistoryLimit
	}
	return min(n, maxHistoryLimit)
}

func (s *Server) listHistory(c echo.Context) error {
	plans, err := s.history.ListPlans(c.Request().Context(), c.QueryParam("userId"), historyLimit(c.QueryParam("limit")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

func (s *Server) getHistory(c echo.Context) error {
	plan, err := s.history.GetPlan(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

func (s *Server) deleteHistory(c echo.Context) error {
	if err := s.history.DeletePlan(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
