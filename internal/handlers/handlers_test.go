package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Brownie44l1/tl-eval/internal/dataset"
	"github.com/Brownie44l1/tl-eval/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictor struct {
	mu       sync.Mutex
	inputLen int
	err      error
	got      [][]float32
}

func (f *fakePredictor) inputs() [][]float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

func (f *fakePredictor) InputLen() int { return f.inputLen }

func (f *fakePredictor) Predict(input []float32) (*model.PredictionResponse, error) {
	f.mu.Lock()
	f.got = append(f.got, input)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &model.PredictionResponse{
		Class:       "happy",
		Confidence:  0.9,
		Predictions: map[string]float32{"happy": 0.9, "sad": 0.1},
		Top5:        []string{"happy", "sad"},
	}, nil
}

func newServer(t *testing.T, p Predictor, tr dataset.Transform) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(p, tr, nil).Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &fakePredictor{}, dataset.Transform{Size: 2})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestOptionsPreflight(t *testing.T) {
	p := &fakePredictor{inputLen: 3}
	srv := newServer(t, p, dataset.Transform{Size: 1})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/predict", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "POST, GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Empty(t, p.inputs())
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		err        error
		wantStatus int
	}{
		{name: "ok", method: http.MethodPost, body: `{"image":[0.1,0.2,0.3]}`, wantStatus: http.StatusOK},
		{name: "wrong method", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed},
		{name: "invalid json", method: http.MethodPost, body: `{"image":`, wantStatus: http.StatusBadRequest},
		{name: "wrong length", method: http.MethodPost, body: `{"image":[0.1]}`, wantStatus: http.StatusBadRequest},
		{name: "model failure", method: http.MethodPost, body: `{"image":[1,2,3]}`, err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePredictor{inputLen: 3, err: tt.err}
			srv := newServer(t, p, dataset.Transform{Size: 1})

			req, err := http.NewRequest(tt.method, srv.URL+"/predict", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				var got model.PredictionResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
				assert.Equal(t, "happy", got.Class)
				assert.Equal(t, []string{"happy", "sad"}, got.Top5)
				assert.Equal(t, [][]float32{{0.1, 0.2, 0.3}}, p.inputs())
			}
		})
	}
}

func multipartImage(t *testing.T, field string, img image.Image) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "face.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPredictFromImage(t *testing.T) {
	p := &fakePredictor{inputLen: 12}
	tr := dataset.Transform{Size: 2}
	srv := newServer(t, p, tr)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, color.White)
		}
	}
	body, contentType := multipartImage(t, "image", img)

	resp, err := http.Post(srv.URL+"/predict/image", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := p.inputs()
	require.Len(t, got, 1)
	assert.Equal(t, tr.Apply(img), got[0])
}

func TestPredictFromImage_BadRequests(t *testing.T) {
	srv := newServer(t, &fakePredictor{inputLen: 12}, dataset.Transform{Size: 2})

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	body, contentType := multipartImage(t, "photo", img)
	resp, err := http.Post(srv.URL+"/predict/image", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp, err = http.Post(srv.URL+"/predict/image", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/predict/image")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
