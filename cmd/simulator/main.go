package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logiroute/internal/models"
)

// CLI is the simulator command line.
type CLI struct {
	APIURL   string        `name:"api-url" default:"http://localhost:8080/api" env:"API_BASE_URL" help:"Base URL of the dispatch API."`
	Token    string        `env:"SIM_AUTH_TOKEN" help:"Bearer token used when the API requires authentication."`
	Interval time.Duration `default:"2s" env:"SIM_TICK" help:"Time between ticks."`
	Burn     float64       `default:"4" help:"Fuel percentage burned per tick by each en-route vehicle."`
	Jitter   float64       `default:"0.5" help:"Relative random variation of the burn (0 disables it)."`
	Ticks    int           `default:"0" help:"Stop after this many ticks; 0 runs until interrupted."`
	Refuel   bool          `help:"Refuel vehicles in maintenance and return them to service."`
	LogLevel string        `default:"info" enum:"debug,info,warn,error" help:"Log level."`
}

// Validate rejects settings that would make the simulation meaningless.
func (c *CLI) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	if c.Burn < 0 || math.IsNaN(c.Burn) {
		return fmt.Errorf("--burn must not be negative")
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("--jitter must be within [0,1]")
	}
	return nil
}

// Simulator drains the fuel of en-route vehicles through the API.
type Simulator struct {
	baseURL string
	token   string
	burn    float64
	jitter  float64
	refuel  bool
	client  *http.Client
	rng     *rand.Rand
}

// NewSimulator creates a simulator from the command line settings.
func NewSimulator(cli CLI) *Simulator {
	return &Simulator{
		baseURL: strings.TrimSuffix(cli.APIURL, "/"),
		token:   cli.Token,
		burn:    cli.Burn,
		jitter:  cli.Jitter,
		refuel:  cli.Refuel,
		client:  &http.Client{Timeout: 10 * time.Second},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type appliedStep struct {
	Kind string `json:"kind"`
}

type vehicleResult struct {
	Vehicle models.Vehicle `json:"vehicle"`
	Applied []appliedStep  `json:"applied"`
}

func (s *Simulator) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var msg bytes.Buffer
		_, _ = msg.ReadFrom(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(msg.String()))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *Simulator) burnFor() float64 {
	if s.jitter == 0 {
		return s.burn
	}
	return s.burn * (1 + s.jitter*(s.rng.Float64()*2-1))
}

// Tick performs one simulation step and returns the number of vehicles it
// updated.
func (s *Simulator) Tick(ctx context.Context) (int, error) {
	var vehicles []models.Vehicle
	if err := s.do(ctx, http.MethodGet, "/vehicles", nil, &vehicles); err != nil {
		return 0, fmt.Errorf("list vehicles: %w", err)
	}

	updated := 0
	for _, v := range vehicles {
		switch {
		case v.Status == models.VehicleEnRoute:
			if err := s.drain(ctx, v); err != nil {
				log.WithError(err).WithField("vehicle_id", v.ID).Error("Failed to update fuel")
				continue
			}
			updated++
		case v.Status == models.VehicleMaintenance && s.refuel:
			if err := s.service(ctx, v); err != nil {
				log.WithError(err).WithField("vehicle_id", v.ID).Error("Failed to refuel vehicle")
				continue
			}
			updated++
		}
	}
	return updated, nil
}

func (s *Simulator) drain(ctx context.Context, v models.Vehicle) error {
	fuel := math.Max(models.MinFuel, v.CurrentFuel-s.burnFor())

	var res vehicleResult
	if err := s.do(ctx, http.MethodPut, "/vehicles/"+v.ID+"/fuel", map[string]float64{"fuel": fuel}, &res); err != nil {
		return err
	}

	entry := log.WithFields(log.Fields{
		"vehicle_id": v.ID,
		"fuel":       res.Vehicle.CurrentFuel,
		"steps":      len(res.Applied),
	})
	if res.Vehicle.Status == models.VehicleMaintenance {
		entry.Warn("Vehicle ran low on fuel and was sent to maintenance")
	} else {
		entry.Info("Burned fuel")
	}
	return nil
}

func (s *Simulator) service(ctx context.Context, v models.Vehicle) error {
	if err := s.do(ctx, http.MethodPut, "/vehicles/"+v.ID+"/fuel", map[string]float64{"fuel": models.MaxFuel}, nil); err != nil {
		return err
	}
	if err := s.do(ctx, http.MethodPut, "/vehicles/"+v.ID+"/status", map[string]string{"status": string(models.VehicleAvailable)}, nil); err != nil {
		return err
	}
	log.WithField("vehicle_id", v.ID).Info("Refueled vehicle and returned it to service")
	return nil
}

// Run ticks every interval until ctx is done or ticks steps have run.
func (s *Simulator) Run(ctx context.Context, interval time.Duration, ticks int) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for n := 0; ticks == 0 || n < ticks; n++ {
		updated, err := s.Tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Error("Tick failed")
		} else {
			log.WithFields(log.Fields{"tick": n + 1, "updated": updated}).Debug("Tick completed")
		}

		if ticks != 0 && n+1 >= ticks {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("simulator"),
		kong.Description("Burns fuel on en-route vehicles through the dispatch API."),
		kong.UsageOnError(),
	)

	level, err := log.ParseLevel(cli.LogLevel)
	kctx.FatalIfErrorf(err)
	log.SetLevel(level)

	log.WithFields(log.Fields{
		"api_url":  cli.APIURL,
		"interval": cli.Interval,
		"burn":     cli.Burn,
		"refuel":   cli.Refuel,
	}).Info("Starting fuel simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.FatalIfErrorf(NewSimulator(cli).Run(ctx, cli.Interval, cli.Ticks))
	log.Info("Simulation stopped")
}
