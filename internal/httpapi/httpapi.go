// Package httpapi exposes the camera over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/astrogo/fitsio"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/model"
)

// Device is the camera surface served over HTTP.
type Device interface {
	Connect(ctx context.Context) error
	Disconnect()
	Connected() bool
	State() model.ExposureState
	PercentCompleted() int
	ImageReady() bool
	StartExposure(duration float64, light bool) error
	AbortExposure(ctx context.Context) error
	StopExposure(ctx context.Context) error
	ImageArray() (*imaging.PixelBuffer, error)
	ImageStatistics() (imaging.Statistics, error)
	ROI() imaging.ROI
	SetROI(imaging.ROI) error
}

// Status is the body of GET /state.
type Status struct {
	Connected        bool                `json:"connected"`
	State            model.ExposureState `json:"state"`
	PercentCompleted int                 `json:"percent_completed"`
	ImageReady       bool                `json:"image_ready"`
	ROI              Region              `json:"roi"`
}

// Region is the JSON form of a readout region.
type Region struct {
	StartX int `json:"start_x"`
	StartY int `json:"start_y"`
	NumX   int `json:"num_x"`
	NumY   int `json:"num_y"`
}

// ExposureRequest is the body of POST /exposure.
type ExposureRequest struct {
	Duration float64 `json:"duration"`
	Light    *bool   `json:"light,omitempty"`
}

// NewRouter returns the route table for dev.
func NewRouter(dev Device, log *slog.Logger) http.Handler {
	h := handlers{dev: dev, log: log.With("component", "http")}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/state", h.state)
	r.Post("/connect", h.connect)
	r.Post("/disconnect", h.disconnect)
	r.Post("/exposure", h.startExposure)
	r.Post("/exposure/abort", h.abortExposure)
	r.Post("/exposure/stop", h.stopExposure)
	r.Put("/roi", h.setROI)
	r.Get("/image/stats", h.imageStats)
	r.Get("/image.fits", h.imageFITS)
	r.Get("/image.png", h.imagePNG)
	return r
}

type handlers struct {
	dev Device
	log *slog.Logger
}

// fail writes err with a status derived from its kind.
func (h handlers) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidValue):
		code = http.StatusBadRequest
	case errors.Is(err, model.ErrNotConnected), errors.Is(err, model.ErrInvalidOperation):
		code = http.StatusConflict
	case errors.Is(err, model.ErrNotImplemented):
		code = http.StatusNotImplemented
	}
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), code)
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h handlers) state(w http.ResponseWriter, r *http.Request) {
	roi := h.dev.ROI()
	respondJSON(w, Status{
		Connected:        h.dev.Connected(),
		State:            h.dev.State(),
		PercentCompleted: h.dev.PercentCompleted(),
		ImageReady:       h.dev.ImageReady(),
		ROI:              Region{StartX: roi.StartX, StartY: roi.StartY, NumX: roi.NumX, NumY: roi.NumY},
	})
}

func (h handlers) connect(w http.ResponseWriter, r *http.Request) {
	if err := h.dev.Connect(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h handlers) disconnect(w http.ResponseWriter, r *http.Request) {
	h.dev.Disconnect()
	w.WriteHeader(http.StatusOK)
}

func (h handlers) startExposure(w http.ResponseWriter, r *http.Request) {
	var req ExposureRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	light := req.Light == nil || *req.Light
	if err := h.dev.StartExposure(req.Duration, light); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h handlers) abortExposure(w http.ResponseWriter, r *http.Request) {
	if err := h.dev.AbortExposure(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h handlers) stopExposure(w http.ResponseWriter, r *http.Request) {
	if err := h.dev.StopExposure(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h handlers) setROI(w http.ResponseWriter, r *http.Request) {
	var reg Region
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.dev.SetROI(imaging.ROI{StartX: reg.StartX, StartY: reg.StartY, NumX: reg.NumX, NumY: reg.NumY}); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h handlers) imageStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.dev.ImageStatistics()
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, st)
}

func (h handlers) imageFITS(w http.ResponseWriter, r *http.Request) {
	img, err := h.dev.ImageArray()
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/fits")
	cards := []fitsio.Card{{Name: "INSTRUME", Value: "dslr-remote"}}
	if err := imaging.WriteFITS(w, img, cards); err != nil {
		h.log.Error("writing fits", "error", err)
	}
}

func (h handlers) imagePNG(w http.ResponseWriter, r *http.Request) {
	img, err := h.dev.ImageArray()
	if err != nil {
		h.fail(w, err)
		return
	}
	maxDim := 1024
	if s := r.URL.Query().Get("max"); s != "" {
		if maxDim, err = strconv.Atoi(s); err != nil {
			http.Error(w, "max must be an integer", http.StatusBadRequest)
			return
		}
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, imaging.Preview(img, maxDim)); err != nil {
		h.log.Error("writing png", "error", err)
	}
}
