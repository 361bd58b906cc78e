package model

import (
    "math"
    "time"
)

// OccupancyLevel is the live occupied count of one location or floor.
// FloorID is empty for a location-wide level.
type OccupancyLevel struct {
    LocationName string  `json:"location_name"`
    FloorID      string  `json:"floor_id,omitempty"`
    FloorName    string  `json:"floor_name,omitempty"`
    Occupied     int     `json:"occupancy_count"`
    Total        int     `json:"total_capacity"`
    Percentage   float64 `json:"occupancy_percentage"`
}

// OccupancyRecord is one stored history sample of a location.
//
// Fields:
//  ID             – primary key (UUID string).
//  LocationName   – location the sample describes.
//  RecordedAt     – UTC time of the snapshot the sample was taken from.
//  OccupancyCount – occupied seats at that time.
//  TotalCapacity  – seats at that time.
//  DayOfWeek      – 0 = Monday ... 6 = Sunday.
//  HourOfDay      – 0-23, UTC.
type OccupancyRecord struct {
    ID             string    `json:"id"`
    LocationName   string    `json:"location_name"`
    RecordedAt     time.Time `json:"timestamp"`
    OccupancyCount int       `json:"occupancy_count"`
    TotalCapacity  int       `json:"total_capacity"`
    DayOfWeek      int       `json:"day_of_week"`
    HourOfDay      int       `json:"hour_of_day"`
}

// Percentage is OccupancyCount over TotalCapacity, 0-100, two decimals.
func (r OccupancyRecord) Percentage() float64 {
    return OccupancyPercent(r.OccupancyCount, r.TotalCapacity)
}

// OccupancyPercent returns occupied/total as a percentage rounded to two
// decimals; an empty total is 0.
func OccupancyPercent(occupied, total int) float64 {
    if total <= 0 {
        return 0
    }
    return math.Round(float64(occupied)/float64(total)*10000) / 100
}
