package myhomeserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	DefaultUsername = "admin"
	DefaultTimeout  = 5 * time.Second
)

var ErrUnauthorized = errors.New("myhomeserver: unauthorized")

// APIError is returned for any non 2xx response from the server.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myhomeserver: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

type Options struct {
	Host       string
	Username   string
	Password   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Instrument *Instrument
}

type httpClient struct {
	baseURL    *url.URL
	username   string
	password   string
	client     *http.Client
	instrument []Instrument
}

// HTTPHub talks to the MyHOMEServer REST API.
type HTTPHub struct {
	httpClient
}

func NewHTTPHub(opts Options) (*HTTPHub, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, errors.New("myhomeserver: host is required")
	}
	base := opts.Host
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("myhomeserver: invalid host %q: %w", opts.Host, err)
	}

	username := opts.Username
	if username == "" {
		username = DefaultUsername
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	// instrumentation
	var inst []Instrument
	if opts.Logger != nil {
		inst = append(inst, traceLoggerInstrumentation(opts.Logger.With(zap.String("target", baseURL.Host))))
	}
	if opts.Instrument != nil {
		inst = append(inst, *opts.Instrument)
	}

	return &HTTPHub{
		httpClient: httpClient{
			baseURL:    baseURL,
			username:   username,
			password:   opts.Password,
			client:     client,
			instrument: inst,
		},
	}, nil
}

func (h *HTTPHub) GetServerSerial(ctx context.Context) (string, error) {
	var info systemInfo
	if err := h.get(ctx, "GetServerSerial", "/api/system", nil, &info); err != nil {
		return "", err
	}
	if info.Serial == "" {
		return "", errors.New("myhomeserver: empty server serial")
	}
	return info.Serial, nil
}

func (h *HTTPHub) Thermostats(ctx context.Context) ([]Thermostat, error) {
	descs, err := h.listObjects(ctx, ObjectTypeThermostat)
	if err != nil {
		return nil, err
	}
	objs := make([]Thermostat, 0, len(descs))
	for _, d := range descs {
		objs = append(objs, &httpThermostat{httpObject{desc: d, client: &h.httpClient}})
	}
	return objs, nil
}

func (h *HTTPHub) Blinds(ctx context.Context) ([]Shutter, error) {
	descs, err := h.listObjects(ctx, ObjectTypeShutter)
	if err != nil {
		return nil, err
	}
	objs := make([]Shutter, 0, len(descs))
	for _, d := range descs {
		objs = append(objs, &httpShutter{httpObject{desc: d, client: &h.httpClient}})
	}
	return objs, nil
}

func (h *HTTPHub) Fans(ctx context.Context) ([]Fancoil, error) {
	descs, err := h.listObjects(ctx, ObjectTypeFancoil)
	if err != nil {
		return nil, err
	}
	objs := make([]Fancoil, 0, len(descs))
	for _, d := range descs {
		objs = append(objs, &httpFancoil{httpObject{desc: d, client: &h.httpClient}})
	}
	return objs, nil
}

func (h *HTTPHub) listObjects(ctx context.Context, objectType string) ([]objectDescriptor, error) {
	var descs []objectDescriptor
	query := url.Values{"type": []string{objectType}}
	if err := h.get(ctx, "ListObjects", "/api/objects", query, &descs); err != nil {
		return nil, err
	}
	return descs, nil
}

func (c *httpClient) get(ctx context.Context, fnName, path string, query url.Values, out any) error {
	return c.do(ctx, fnName, http.MethodGet, path, query, nil, out)
}

func (c *httpClient) post(ctx context.Context, fnName, path string, body any) error {
	return c.do(ctx, fnName, http.MethodPost, path, nil, body, nil)
}

func (c *httpClient) do(ctx context.Context, fnName, method, path string, query url.Values, body any, out any) error {
	defer RecordTimer(fnName, c.instrument)()

	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("myhomeserver: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("myhomeserver: decode %s: %w", path, err)
	}
	return nil
}

// ensure interface compliance
var _ Hub = (*HTTPHub)(nil)
