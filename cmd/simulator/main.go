package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motolog/internal/models"
)

// Part is a consumable with its recommended replacement interval.
type Part struct {
	Name           string
	BaseCost       float64
	IntervalKm     int64
	IntervalMonths int64
}

// catalog lists typical motorcycle service items.
var catalog = []Part{
	{Name: "Engine Oil", BaseCost: 65, IntervalKm: 3000, IntervalMonths: 6},
	{Name: "Oil Filter", BaseCost: 35, IntervalKm: 6000, IntervalMonths: 12},
	{Name: "Chain Kit", BaseCost: 320, IntervalKm: 20000, IntervalMonths: 24},
	{Name: "Front Tyre", BaseCost: 450, IntervalKm: 15000, IntervalMonths: 36},
	{Name: "Rear Tyre", BaseCost: 520, IntervalKm: 12000, IntervalMonths: 36},
	{Name: "Brake Pads", BaseCost: 90, IntervalKm: 10000, IntervalMonths: 24},
	{Name: "Spark Plug", BaseCost: 30, IntervalKm: 10000, IntervalMonths: 24},
	{Name: "Air Filter", BaseCost: 45, IntervalKm: 8000, IntervalMonths: 12},
}

// Service is one entry of the generated history, in the shape the API
// accepts.
type Service struct {
	Name             string  `json:"name"`
	Cost             float64 `json:"cost"`
	ServiceDate      string  `json:"serviceDate"`
	ServiceOdometer  int64   `json:"serviceOdometer"`
	IntervalDistance int64   `json:"intervalDistance"`
	IntervalMonths   int64   `json:"intervalMonths"`
}

// Ride describes how the simulated motorcycle is used.
type Ride struct {
	Start      models.Date
	Odometer   int64
	Months     int
	KmPerMonth int64
}

// planHistory rides month by month and services every part once it is due
// by distance or by date. The result is in chronological order.
func planHistory(rng *rand.Rand, parts []Part, ride Ride) []Service {
	type due struct {
		km   int64
		date models.Date
	}
	next := make([]due, len(parts))
	for i, p := range parts {
		next[i] = due{km: ride.Odometer + p.IntervalKm, date: ride.Start.AddDays(int(p.IntervalMonths) * models.DaysPerMonth)}
	}

	var history []Service
	odometer := ride.Odometer
	for month := 1; month <= ride.Months; month++ {
		// riding varies by +/-25% month to month
		jitter := ride.KmPerMonth / 4
		ridden := ride.KmPerMonth
		if jitter > 0 {
			ridden += rng.Int63n(2*jitter+1) - jitter
		}
		odometer += ridden
		date := ride.Start.AddDays(month * models.DaysPerMonth)

		for i, p := range parts {
			if odometer < next[i].km && date.Before(next[i].date.Time) {
				continue
			}
			// prices drift up to 15% either way
			cost := p.BaseCost * (0.85 + rng.Float64()*0.3)
			s := Service{
				Name:             p.Name,
				Cost:             float64(int64(cost*100+0.5)) / 100,
				ServiceDate:      date.String(),
				ServiceOdometer:  odometer,
				IntervalDistance: p.IntervalKm,
				IntervalMonths:   p.IntervalMonths,
			}
			history = append(history, s)
			proj := models.Project(date, odometer, p.IntervalKm, p.IntervalMonths)
			next[i] = due{km: proj.NextDueOdometer, date: proj.NextDueDate}
		}
	}
	return history
}

func postService(client *http.Client, apiURL string, s Service) (int64, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal service: %w", err)
	}

	resp, err := client.Post(apiURL+"/items", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create item: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("item creation failed with status %d: %s", resp.StatusCode, result.Message)
	}
	return result.ID, nil
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		log.WithField("var", name).Warn("Ignoring invalid value")
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	start := models.NewDate(time.Now().Year()-2, time.January, 1)
	if v := os.Getenv("SIM_START_DATE"); v != "" {
		d, err := models.ParseDate(models.ISODateLayout, v)
		if err != nil {
			log.WithError(err).Fatal("SIM_START_DATE must be YYYY-MM-DD")
		}
		start = d
	}

	ride := Ride{
		Start:      start,
		Odometer:   int64(envInt("SIM_ODOMETER", 5000)),
		Months:     envInt("SIM_MONTHS", 24),
		KmPerMonth: int64(envInt("SIM_KM_PER_MONTH", 800)),
	}
	seed := int64(envInt("SIM_SEED", int(time.Now().UnixNano()%1e9)))

	log.WithFields(log.Fields{
		"api_url":      apiURL,
		"start":        ride.Start.String(),
		"months":       ride.Months,
		"km_per_month": ride.KmPerMonth,
		"seed":         seed,
	}).Info("Starting service history simulation")

	history := planHistory(rand.New(rand.NewSource(seed)), catalog, ride)
	client := &http.Client{Timeout: 10 * time.Second}

	created := 0
	for _, s := range history {
		id, err := postService(client, apiURL, s)
		if err != nil {
			log.WithError(err).WithField("name", s.Name).Error("Failed to record service")
			continue
		}
		created++
		log.WithFields(log.Fields{
			"id":       id,
			"name":     s.Name,
			"date":     s.ServiceDate,
			"odometer": s.ServiceOdometer,
		}).Info("Recorded service")
	}

	log.WithFields(log.Fields{"planned": len(history), "created": created}).Info("Simulation completed")
	if created < len(history) {
		os.Exit(1)
	}
}
