package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/smart-seats/internal/occupancy"
)

const (
    defaultHistoryLimit = 100
    maxHistoryLimit     = 1000
)

type batchRequest struct {
    Events []occupancy.Event `json:"events"`
}

// ReportOccupancyBatch accepts {"events":[...]} from a sensor gateway.
// Bad events are listed in "failed" and do not fail the request.
func (h *SeatHandler) ReportOccupancyBatch(c echo.Context) error {
    var req batchRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
    }
    if len(req.Events) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "events must not be empty"})
    }
    if len(req.Events) > occupancy.MaxBatch {
        return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "too many events, max " + strconv.Itoa(occupancy.MaxBatch)})
    }
    for i := range req.Events {
        if req.Events[i].Source == "" {
            req.Events[i].Source = "http"
        }
    }
    return c.JSON(http.StatusOK, h.Occupancy.ApplyBatch(c.Request().Context(), req.Events))
}

// CurrentOccupancy returns occupied counts per location and per floor of
// the latest snapshot.  ?location= narrows to one location.
func (h *SeatHandler) CurrentOccupancy(c echo.Context) error {
    return c.JSON(http.StatusOK, occupancy.Current(h.Snapshots.Get(), c.QueryParam("location")))
}

// OccupancyHistory lists recorded samples, newest first.
// Query parameters: location, limit (1-1000, default 100).
func (h *SeatHandler) OccupancyHistory(c echo.Context) error {
    if h.History == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "history not recorded"})
    }
    limit := defaultHistoryLimit
    if s := c.QueryParam("limit"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 1 || n > maxHistoryLimit {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 1000"})
        }
        limit = n
    }
    recs, err := h.History.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("location")), limit)
    if err != nil {
        c.Logger().Errorf("history: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    type item struct {
        ID         string  `json:"id"`
        Location   string  `json:"location_name"`
        Timestamp  string  `json:"timestamp"`
        Occupied   int     `json:"occupancy_count"`
        Total      int     `json:"total_capacity"`
        Percentage float64 `json:"occupancy_percentage"`
        DayOfWeek  int     `json:"day_of_week"`
        HourOfDay  int     `json:"hour_of_day"`
    }
    out := make([]item, 0, len(recs))
    for _, r := range recs {
        out = append(out, item{
            ID: r.ID, Location: r.LocationName, Timestamp: r.RecordedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
            Occupied: r.OccupancyCount, Total: r.TotalCapacity, Percentage: r.Percentage(),
            DayOfWeek: r.DayOfWeek, HourOfDay: r.HourOfDay,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"history": out})
}

// Simulate runs one drift tick now and returns the snapshot it published.
func (h *SeatHandler) Simulate(c echo.Context) error {
    if h.Ticker == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "simulation disabled"})
    }
    if err := h.Ticker.Tick(c.Request().Context()); err != nil {
        c.Logger().Errorf("simulate: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    snap := h.Snapshots.Get()
    return c.JSON(http.StatusOK, echo.Map{"version": snap.Version, "total_seats": len(snap.Seats)})
}
