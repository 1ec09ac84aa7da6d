package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/engine"
	"dispatchboard/internal/engine/auth"
	"dispatchboard/internal/filter"
	"dispatchboard/internal/repo"
	"dispatchboard/internal/schedule"
	"dispatchboard/internal/timegrid"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	Logger   *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"forbidden"`
	Message string         `json:"message" example:"permission workorder.delete required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"permission\":\"workorder.delete\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError is the {"error":{code,message,details}} envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the dispatch API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = logger
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine))
	hcfg := huma.DefaultConfig("Dispatch Board API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerMe(group)
	registerExport(router, basePath, cfg.Engine, logger)
	registerWorkOrders(group, cfg.Engine)
	registerTechnicians(group, cfg.Engine)
	registerCustomers(group, cfg.Engine)
	registerUsers(group, cfg.Engine)
	registerSchedule(group, cfg.Engine, logger)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"permission": fe.Permission})
	}
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, schedule.ErrUnknownWorkOrder) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"field": ve.Field})
	}
	var sve schedule.ValidationError
	if errors.As(err, &sve) {
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"field": sve.Field})
	}
	var fve *filter.InvalidValueError
	if errors.As(err, &fve) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{fve.Dimension: fve.Value})
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "unique constraint"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join("/", basePath, "health")
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Dispatch Board API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerMe(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current user",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MeResponse `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, _ := principalFromContext(ctx)
		return &struct {
			Body MeResponse `json:"body"`
		}{Body: MeResponse{
			User:        u,
			Permissions: nonNilSlice(auth.Permissions(u.Role)),
			Source:      p.Source,
		}}, nil
	})
}

func registerWorkOrders(api huma.API, e engine.Engine) {
	type workOrderPath struct {
		ID string `path:"id"`
	}
	type workOrderBody struct {
		Body domain.WorkOrder `json:"body"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-work-orders",
		Method:      http.MethodGet,
		Path:        "/work-orders",
		Summary:     "List work orders",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TechnicianID string `query:"technician_id"`
		CustomerID   string `query:"customer_id"`
		Status       string `query:"status" enum:"New,Assigned,In Progress,Completed"`
		From         string `query:"from" doc:"RFC3339; orders ending after this instant"`
		To           string `query:"to" doc:"RFC3339; orders starting before this instant"`
		Limit        int    `query:"limit"`
	}) (*struct {
		Body []domain.WorkOrder `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		f := repo.WorkOrderFilters{
			TechnicianID: input.TechnicianID,
			CustomerID:   input.CustomerID,
			Status:       input.Status,
			Limit:        input.Limit,
		}
		for _, bound := range []struct {
			name string
			raw  string
			dst  *string
		}{{"from", input.From, &f.From}, {"to", input.To, &f.To}} {
			if bound.raw == "" {
				continue
			}
			ts, err := time.Parse(time.RFC3339, bound.raw)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid "+bound.name, map[string]any{bound.name: bound.raw})
			}
			*bound.dst = ts.UTC().Format(time.RFC3339)
		}
		items, err := e.ListWorkOrders(ctx, u, f)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.WorkOrder `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-work-order",
		Method:        http.MethodPost,
		Path:          "/work-orders",
		Summary:       "Create work order",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateWorkOrderRequest `json:"body"`
	}) (*workOrderBody, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wo, err := e.CreateWorkOrder(ctx, u, input.Body.workOrder())
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-work-order",
		Method:      http.MethodGet,
		Path:        "/work-orders/{id}",
		Summary:     "Get work order",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *workOrderPath) (*workOrderBody, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wo, err := e.GetWorkOrder(ctx, u, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-work-order",
		Method:      http.MethodPatch,
		Path:        "/work-orders/{id}",
		Summary:     "Update work order",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body domain.WorkOrderPatch `json:"body"`
	}) (*workOrderBody, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wo, err := e.UpdateWorkOrder(ctx, u, input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-work-order",
		Method:        http.MethodDelete,
		Path:          "/work-orders/{id}",
		Summary:       "Delete work order",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *workOrderPath) (*struct{}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteWorkOrder(ctx, u, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "duplicate-work-order",
		Method:        http.MethodPost,
		Path:          "/work-orders/{id}/duplicate",
		Summary:       "Duplicate work order",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *workOrderPath) (*workOrderBody, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wo, err := e.DuplicateWorkOrder(ctx, u, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})
}

func registerTechnicians(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-technicians",
		Method:      http.MethodGet,
		Path:        "/technicians",
		Summary:     "List technicians",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Technician `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListTechnicians(ctx, u)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Technician `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-technician",
		Method:        http.MethodPost,
		Path:          "/technicians",
		Summary:       "Create technician",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateTechnicianRequest `json:"body"`
	}) (*struct {
		Body domain.Technician `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreateTechnician(ctx, u, input.Body.options())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Technician `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-technician",
		Method:      http.MethodGet,
		Path:        "/technicians/{id}",
		Summary:     "Get technician",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Technician `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.GetTechnician(ctx, u, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Technician `json:"body"`
		}{Body: t}, nil
	})
}

func registerCustomers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-customers",
		Method:      http.MethodGet,
		Path:        "/customers",
		Summary:     "List customers",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Customer `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListCustomers(ctx, u)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Customer `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-customer",
		Method:        http.MethodPost,
		Path:          "/customers",
		Summary:       "Create customer",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateCustomerRequest `json:"body"`
	}) (*struct {
		Body domain.Customer `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.CreateCustomer(ctx, u, domain.Customer{
			ID:      input.Body.ID,
			Name:    input.Body.Name,
			Email:   input.Body.Email,
			Phone:   input.Body.Phone,
			Address: input.Body.Address,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Customer `json:"body"`
		}{Body: c}, nil
	})
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.User `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListUsers(ctx, u)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.User `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest `json:"body"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		created, err := e.CreateUser(ctx, u, engine.UserCreateOptions{
			ID:    input.Body.ID,
			Name:  input.Body.Name,
			Email: input.Body.Email,
			Role:  input.Body.Role,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: created}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/users/{id}/api-keys",
		Summary:       "Issue an API key",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string              `path:"id"`
		Body CreateAPIKeyRequest `json:"body,omitempty" required:"false"`
	}) (*struct {
		Body APIKeyResponse `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		raw, key, err := e.CreateAPIKey(ctx, u, input.ID, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body APIKeyResponse `json:"body"`
		}{Body: APIKeyResponse{
			ID:        key.ID,
			UserID:    key.UserID,
			Name:      key.Name,
			Key:       raw,
			CreatedAt: key.CreatedAt,
		}}, nil
	})
}

type scheduleQuery struct {
	View         string   `query:"view" enum:"day,week,month" default:"week"`
	Date         string   `query:"date" doc:"Anchor date, YYYY-MM-DD. Defaults to today."`
	TechnicianID []string `query:"technician_id"`
	Priority     []string `query:"priority"`
	Status       []string `query:"status"`
	Search       string   `query:"search"`
}

func scheduleQueryFromURL(r *http.Request) scheduleQuery {
	q := r.URL.Query()
	return scheduleQuery{
		View:         q.Get("view"),
		Date:         q.Get("date"),
		TechnicianID: q["technician_id"],
		Priority:     q["priority"],
		Status:       q["status"],
		Search:       q.Get("search"),
	}
}

// openView loads a schedule view for u positioned and filtered as q asks.
func openView(ctx context.Context, e engine.Engine, u domain.User, q scheduleQuery, logger *slog.Logger) (*schedule.View, error) {
	mode, err := timegrid.ParseViewMode(q.View)
	if err != nil {
		return nil, err
	}
	priorities, err := filter.ParsePriorities(splitList(q.Priority))
	if err != nil {
		return nil, err
	}
	statuses, err := filter.ParseStatuses(splitList(q.Status))
	if err != nil {
		return nil, err
	}
	opts := schedule.OptionsFromConfig(e.Config.Schedule)
	opts.Now = e.Now
	notifier := schedule.NotifierFunc(func(msg string, kind schedule.NoticeKind) {
		logger.Debug("schedule notice", "user_id", u.ID, "kind", string(kind), "message", msg)
	})
	v := schedule.New(engine.Session{Engine: e, User: u}, notifier, u, opts)
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	v.SetViewMode(mode)
	if q.Date != "" {
		d, err := time.ParseInLocation(time.DateOnly, q.Date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", q.Date)
		}
		v.SetDate(d)
	}
	v.SetSearch(q.Search)
	v.SetTechnicianFilter(splitList(q.TechnicianID))
	v.SetPriorityFilter(priorities)
	v.SetStatusFilter(statuses)
	return v, nil
}

func registerSchedule(api huma.API, e engine.Engine, logger *slog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "get-schedule",
		Method:      http.MethodGet,
		Path:        "/schedule",
		Summary:     "Technician schedule grid",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *scheduleQuery) (*struct {
		Body ScheduleResponse `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		v, err := openView(ctx, e, u, *input, logger)
		if err != nil {
			return nil, handleError(err)
		}
		grid := v.Grid()
		resp := ScheduleResponse{
			Mode:  grid.Mode,
			Date:  v.State().CurrentDate.Format(time.DateOnly),
			Days:  make([]string, 0, len(grid.Days)),
			Rows:  nonNilSlice(grid.Rows),
			Total: len(v.Filtered()),
		}
		for _, d := range grid.Days {
			resp.Days = append(resp.Days, d.Format(time.DateOnly))
		}
		if grid.Mode == timegrid.ViewDay {
			resp.TimeSlots = slotResponses(v.TimeSlots())
		}
		return &struct {
			Body ScheduleResponse `json:"body"`
		}{Body: resp}, nil
	})
}

// httpDownload writes an exported file as an attachment.
type httpDownload struct {
	w http.ResponseWriter
}

func (d httpDownload) Download(filename string, payload []byte) error {
	d.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	d.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	d.w.WriteHeader(http.StatusOK)
	_, err := d.w.Write(payload)
	return err
}

func registerExport(r chi.Router, basePath string, e engine.Engine, logger *slog.Logger) {
	r.Get(path.Join(basePath, "work-orders/export.csv"), func(w http.ResponseWriter, req *http.Request) {
		u, authErr := currentUser(req.Context())
		if authErr != nil {
			respondStatusError(w, authErr)
			return
		}
		v, err := openView(req.Context(), e, u, scheduleQueryFromURL(req), logger)
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		if err := v.ExportCSV(httpDownload{w: w}); err != nil {
			logger.Error("csv export failed", "user_id", u.ID, "error", err)
		}
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"work_order,technician,customer,user"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		u, authErr := currentUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		limit := normalizeLimit(input.Limit)
		var cursorID int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursorID = parsed
		}
		items, err := e.ListEvents(ctx, u, limit+1, cursorID, repo.EventFilters{
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

// splitList accepts both repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}
