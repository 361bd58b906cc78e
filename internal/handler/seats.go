// Package handler exposes the HTTP surface of the seat service: snapshot
// reads, suggestions, sensor reports, occupancy levels and history, and
// the concierge chat.
package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/smart-seats/internal/model"
    "github.com/iliyamo/smart-seats/internal/occupancy"
    "github.com/iliyamo/smart-seats/internal/repository"
)

// SnapshotSource returns the latest published snapshot.
type SnapshotSource interface {
    Get() *model.Snapshot
}

// Suggester ranks available seats.
type Suggester interface {
    Suggest(ctx context.Context, f model.SuggestionFilter, limit int) ([]model.Candidate, error)
}

// OccupancyApplier stores sensor reports.
type OccupancyApplier interface {
    Apply(ctx context.Context, ev occupancy.Event) (model.SeatStatus, error)
    ApplyBatch(ctx context.Context, events []occupancy.Event) occupancy.BatchResult
}

// HistoryReader lists stored occupancy samples, newest first.
type HistoryReader interface {
    List(ctx context.Context, location string, limit int) ([]model.OccupancyRecord, error)
}

// Ticker runs one drift tick on demand.
type Ticker interface {
    Tick(ctx context.Context) error
}

// SeatHandler serves seat state.  History and Ticker may be nil; their
// endpoints then answer 503.
type SeatHandler struct {
    Snapshots SnapshotSource
    Ranker    Suggester
    Occupancy OccupancyApplier
    History   HistoryReader
    Ticker    Ticker
}

// GetSnapshot returns the current snapshot: floors, flat seat list,
// encoded text, version and last_updated.  Before the first tick it is a
// well-formed empty snapshot.
func (h *SeatHandler) GetSnapshot(c echo.Context) error {
    return c.JSON(http.StatusOK, h.Snapshots.Get())
}

// Suggest ranks available seats.  Query parameters: floor_id, seat_type,
// need_power, need_wifi, need_ac (true/false, omitted means no
// preference) and limit.
func (h *SeatHandler) Suggest(c echo.Context) error {
    var f model.SuggestionFilter
    f.FloorID = strings.TrimSpace(c.QueryParam("floor_id"))

    if t := strings.TrimSpace(c.QueryParam("seat_type")); t != "" {
        st := model.SeatType(strings.ToLower(t))
        if !st.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_type"})
        }
        f.SeatType = st
    }

    var err error
    for name, dst := range map[string]**bool{"need_power": &f.NeedPower, "need_wifi": &f.NeedWifi, "need_ac": &f.NeedAC} {
        if *dst, err = triState(c.QueryParam(name)); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
        }
    }

    limit := 0
    if s := c.QueryParam("limit"); s != "" {
        if limit, err = strconv.Atoi(s); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
        }
    }

    cands, err := h.Ranker.Suggest(c.Request().Context(), f, limit)
    if err != nil {
        c.Logger().Errorf("suggest: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    out := make([]model.SeatDetail, 0, len(cands))
    for _, cand := range cands {
        out = append(out, cand.Detail())
    }
    return c.JSON(http.StatusOK, echo.Map{"suggestions": out})
}

// ReportOccupancy accepts one sensor event:
// {"seat_id":"...","is_occupied":true} or {"seat_id":"...","status":"reserved"}.
func (h *SeatHandler) ReportOccupancy(c echo.Context) error {
    var ev occupancy.Event
    if err := c.Bind(&ev); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
    }
    if ev.Source == "" {
        ev.Source = "http"
    }
    st, err := h.Occupancy.Apply(c.Request().Context(), ev)
    switch {
    case errors.Is(err, occupancy.ErrInvalidEvent):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrSeatNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
    case err != nil:
        c.Logger().Errorf("occupancy: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"seat_id": ev.SeatID, "status": st})
}

func triState(s string) (*bool, error) {
    if s == "" {
        return nil, nil
    }
    b, err := strconv.ParseBool(s)
    if err != nil {
        return nil, err
    }
    return &b, nil
}
