package handlers

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/Brownie44l1/tl-eval/internal/dataset"
	"github.com/Brownie44l1/tl-eval/internal/model"
)

// Predictor is the model the handlers serve.
type Predictor interface {
	Predict(input []float32) (*model.PredictionResponse, error)
	InputLen() int
}

type Handler struct {
	predictor Predictor
	transform dataset.Transform
	logger    *slog.Logger
}

// NewHandler serves predictor; uploaded images are preprocessed with transform.
func NewHandler(predictor Predictor, transform dataset.Transform, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		predictor: predictor,
		transform: transform,
		logger:    logger,
	}
}

// Routes registers every endpoint on mux behind the CORS wrapper.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", EnableCORS(h.Health))
	mux.HandleFunc("/predict", EnableCORS(h.Predict))
	mux.HandleFunc("/predict/image", EnableCORS(h.PredictFromImage))
}

func EnableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "healthy"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if expected := h.predictor.InputLen(); len(req.Image) != expected {
		http.Error(w, fmt.Sprintf("Expected %d values, got %d", expected, len(req.Image)),
			http.StatusBadRequest)
		return
	}

	h.respond(w, req.Image)
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 10MB max
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG, GIF", http.StatusBadRequest)
		return
	}

	h.logger.Debug("Received image",
		"filename", header.Filename,
		"bytes", header.Size,
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	h.respond(w, h.transform.Apply(img))
}

func (h *Handler) respond(w http.ResponseWriter, input []float32) {
	result, err := h.predictor.Predict(input)
	if err != nil {
		h.logger.Error("Prediction failed", "error", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to write response", "error", err)
	}
}
