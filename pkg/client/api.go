package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/query"

	"github.com/gofiber/fiber/v2"
)

// APIBackend drives the listing REST API over HTTP.
type APIBackend struct {
	baseURL string
	token   string
	timeout time.Duration
}

func NewAPIBackend(baseURL, token string, timeout time.Duration) *APIBackend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APIBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
	}
}

// SetToken sets the admin token sent with write requests.
func (a *APIBackend) SetToken(token string) {
	a.token = token
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

type propertyBody struct {
	Property      *model.Property `json:"property"`
	IgnoredFields []string        `json:"ignored_fields"`
}

type listBody struct {
	Properties []model.Property `json:"properties"`
	Total      int64            `json:"total"`
}

// do sends the request and decodes a 2xx JSON body into out. Non-2xx
// responses are mapped back onto apperror kinds.
func (a *APIBackend) do(ctx context.Context, method, path string, body any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(a.baseURL + path)
	if a.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+a.token)
	}
	if body != nil {
		agent.JSON(body)
	}
	agent.Timeout(timeout)

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("prepare request: %w", err)
	}
	// Bytes releases the agent.
	code, data, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}

	if code < 200 || code > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return statusError(code, eb)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(code int, eb errorBody) error {
	msg := eb.Error
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", code)
	}
	switch code {
	case fiber.StatusBadRequest:
		return apperror.Validation(eb.Field, msg)
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		return apperror.Unauthorized()
	case fiber.StatusNotFound:
		return &apperror.Error{Kind: apperror.KindNotFound, Message: msg}
	case fiber.StatusConflict:
		return apperror.Conflict(msg)
	}
	return apperror.Internal(msg, nil)
}

func (a *APIBackend) Ping(ctx context.Context) error {
	return a.do(ctx, fiber.MethodGet, "/api/health", nil, nil)
}

// List pages through every published listing.
func (a *APIBackend) List(ctx context.Context) ([]model.Property, error) {
	all := []model.Property{}
	for offset := 0; ; offset += query.MaxLimit {
		var page listBody
		path := fmt.Sprintf("/api/properties?limit=%d&offset=%d", query.MaxLimit, offset)
		if err := a.do(ctx, fiber.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Properties...)
		if len(page.Properties) < query.MaxLimit || int64(len(all)) >= page.Total {
			return all, nil
		}
	}
}

func (a *APIBackend) Get(ctx context.Context, identifier string) (*model.Property, error) {
	var body propertyBody
	if err := a.do(ctx, fiber.MethodGet, "/api/properties/"+url.PathEscape(identifier), nil, &body); err != nil {
		return nil, err
	}
	if body.Property == nil {
		return nil, apperror.NotFound("Property")
	}
	return body.Property, nil
}

func (a *APIBackend) Search(ctx context.Context, term string) ([]model.Property, error) {
	var body listBody
	if err := a.do(ctx, fiber.MethodGet, "/api/properties/search/"+url.PathEscape(term), nil, &body); err != nil {
		return nil, err
	}
	return body.Properties, nil
}

func (a *APIBackend) Create(ctx context.Context, fields map[string]any) (*model.Property, []string, error) {
	var body propertyBody
	if err := a.do(ctx, fiber.MethodPost, "/api/admin/properties", fields, &body); err != nil {
		return nil, nil, err
	}
	if body.Property == nil {
		return nil, nil, apperror.Internal("empty response", nil)
	}
	return body.Property, body.IgnoredFields, nil
}

func (a *APIBackend) Update(ctx context.Context, id uint, fields map[string]any) (*model.Property, []string, error) {
	var body propertyBody
	if err := a.do(ctx, fiber.MethodPut, fmt.Sprintf("/api/admin/properties/%d", id), fields, &body); err != nil {
		return nil, nil, err
	}
	if body.Property == nil {
		return nil, nil, apperror.Internal("empty response", nil)
	}
	return body.Property, body.IgnoredFields, nil
}

func (a *APIBackend) Delete(ctx context.Context, id uint) error {
	return a.do(ctx, fiber.MethodDelete, fmt.Sprintf("/api/admin/properties/%d", id), nil, nil)
}

// Login exchanges admin credentials for a token and keeps it for later writes.
func (a *APIBackend) Login(ctx context.Context, username, password string) error {
	var body struct {
		Token string `json:"token"`
	}
	creds := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, fiber.MethodPost, "/api/admin/login", creds, &body); err != nil {
		return err
	}
	a.token = body.Token
	return nil
}
