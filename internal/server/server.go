package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/engine"
	"github.com/Souleye05/legal-agenda-sub000/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"conflict"`
	Message string         `json:"message" example:"hearing already has a result"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the agenda API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema-level request validation errors are 400 bad_request.
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Legal Agenda API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerCases(group, cfg.Engine)
	registerHearings(group, cfg.Engine)
	registerResults(group, cfg.Engine)
	registerAppealReminders(group, cfg.Engine)
	registerEnrollment(group, cfg.Engine)
	registerAlerts(group, cfg.Engine)
	registerSweep(group, cfg.Engine)
	registerAPIKeys(group, cfg.Engine)
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
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
	if errors.Is(err, engine.ErrConflict) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
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
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Legal Agenda API Docs</title>
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

func registerCases(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-case",
		Method:        http.MethodPost,
		Path:          "/cases",
		Summary:       "Open a case",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateCaseRequest `json:"body"`
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.CreateCase(ctx, engine.CaseCreateOptions{
			Reference:     input.Body.Reference,
			Title:         input.Body.Title,
			OpposingParty: deref(input.Body.OpposingParty),
			OwnerID:       deref(input.Body.OwnerID),
			ActorID:       actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-cases",
		Method:      http.MethodGet,
		Path:        "/cases",
		Summary:     "List cases",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"active,closed,radiated" required:"false"`
		Limit  int    `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.Case `json:"body"`
	}, error) {
		items, err := e.Repo.ListCases(ctx, input.Status, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Case `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-case",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}",
		Summary:     "Get case",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `path:"case_id"`
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		c, err := e.Repo.GetCase(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-case-hearings",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}/hearings",
		Summary:     "List hearings of a case",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `path:"case_id"`
	}) (*struct {
		Body []domain.Hearing `json:"body"`
	}, error) {
		if _, err := e.Repo.GetCase(ctx, input.CaseID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListHearings(ctx, repo.HearingFilters{CaseID: input.CaseID})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Hearing `json:"body"`
		}{Body: items}, nil
	})
}

func registerHearings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-hearing",
		Method:        http.MethodPost,
		Path:          "/hearings",
		Summary:       "Schedule a hearing",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateHearingRequest `json:"body"`
	}) (*struct {
		Body domain.Hearing `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		h, err := e.CreateHearing(ctx, engine.HearingCreateOptions{
			CaseID:         input.Body.CaseID,
			Date:           input.Body.Date,
			Time:           deref(input.Body.Time),
			Type:           input.Body.Type,
			Court:          deref(input.Body.Court),
			PrepNotes:      deref(input.Body.PrepNotes),
			EnrollRequired: input.Body.EnrollRequired,
			ActorID:        actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Hearing `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-unreported-hearings",
		Method:      http.MethodGet,
		Path:        "/hearings/unreported",
		Summary:     "List hearings awaiting an outcome",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Hearing `json:"body"`
	}, error) {
		items, err := e.ListUnreportedHearings(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Hearing `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-hearing",
		Method:      http.MethodGet,
		Path:        "/hearings/{hearing_id}",
		Summary:     "Get hearing",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		HearingID string `path:"hearing_id"`
	}) (*struct {
		Body domain.Hearing `json:"body"`
	}, error) {
		h, err := e.Repo.GetHearing(ctx, input.HearingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Hearing `json:"body"`
		}{Body: h}, nil
	})
}

func registerResults(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "record-result",
		Method:        http.MethodPost,
		Path:          "/hearings/{hearing_id}/result",
		Summary:       "Record a hearing outcome",
		Description:   "Records the outcome of a hearing and runs the cascade: renvoi schedules the follow-up hearing, radiation radiates the case, délibéré closes it and optionally opens the appeal window.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		HearingID string              `path:"hearing_id"`
		Body      RecordResultRequest `json:"body"`
	}) (*struct {
		Body RecordResultResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		h, res, err := e.RecordResult(ctx, engine.ResultOptions{
			HearingID:      input.HearingID,
			Kind:           input.Body.Kind,
			NewDate:        deref(input.Body.NewDate),
			Reason:         deref(input.Body.Reason),
			Decision:       deref(input.Body.Decision),
			AppealOptIn:    input.Body.AppealOptIn,
			AppealDeadline: deref(input.Body.AppealDeadline),
			AppealNotes:    deref(input.Body.AppealNotes),
			ActorID:        actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RecordResultResponse `json:"body"`
		}{Body: RecordResultResponse{
			HearingID: h.ID,
			Status:    h.Status,
			ResultID:  res.ID,
			Kind:      res.Kind,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-hearing-result",
		Method:      http.MethodGet,
		Path:        "/hearings/{hearing_id}/result",
		Summary:     "Get the recorded outcome of a hearing",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		HearingID string `path:"hearing_id"`
	}) (*struct {
		Body domain.Result `json:"body"`
	}, error) {
		res, err := e.Repo.GetResultByHearing(ctx, input.HearingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Result `json:"body"`
		}{Body: res}, nil
	})
}

func registerAppealReminders(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-appeal-reminder",
		Method:        http.MethodPost,
		Path:          "/reminders/appeal",
		Summary:       "Create an appeal deadline reminder",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateAppealReminderRequest `json:"body"`
	}) (*struct {
		Body domain.AppealReminder `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rem, err := e.CreateAppealReminder(ctx, engine.ReminderCreateOptions{
			CaseID:   input.Body.CaseID,
			Deadline: deref(input.Body.Deadline),
			Notes:    deref(input.Body.Notes),
			ActorID:  actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.AppealReminder `json:"body"`
		}{Body: rem}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-appeal-reminders",
		Method:      http.MethodGet,
		Path:        "/reminders/appeal",
		Summary:     "List active appeal reminders",
		Description: "Active reminders sorted by deadline, soonest first, each with the number of days left.",
	}, func(ctx context.Context, input *struct {
		CaseID string `query:"case_id" required:"false"`
	}) (*struct {
		Body []engine.ReminderView `json:"body"`
	}, error) {
		items, err := e.ListActiveReminders(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.ReminderView `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-completed-appeal-reminders",
		Method:      http.MethodGet,
		Path:        "/reminders/appeal/completed",
		Summary:     "List completed appeal reminders",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.AppealReminder `json:"body"`
	}, error) {
		items, err := e.ListCompletedReminders(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.AppealReminder `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-appeal-reminder",
		Method:      http.MethodPatch,
		Path:        "/reminders/appeal/{reminder_id}",
		Summary:     "Update an appeal reminder",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ReminderID string                      `path:"reminder_id"`
		Body       UpdateAppealReminderRequest `json:"body"`
	}) (*struct {
		Body domain.AppealReminder `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rem, err := e.UpdateAppealReminder(ctx, engine.ReminderUpdateOptions{
			ID:       input.ReminderID,
			Deadline: input.Body.Deadline,
			Notes:    input.Body.Notes,
			Done:     input.Body.Done,
			ActorID:  actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.AppealReminder `json:"body"`
		}{Body: rem}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-appeal-reminder",
		Method:      http.MethodPost,
		Path:        "/reminders/appeal/{reminder_id}/complete",
		Summary:     "Mark an appeal reminder complete",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ReminderID string `path:"reminder_id"`
	}) (*struct {
		Body domain.AppealReminder `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rem, err := e.MarkAppealReminderComplete(ctx, input.ReminderID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.AppealReminder `json:"body"`
		}{Body: rem}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-appeal-reminder",
		Method:        http.MethodDelete,
		Path:          "/reminders/appeal/{reminder_id}",
		Summary:       "Delete an appeal reminder",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ReminderID string `path:"reminder_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteAppealReminder(ctx, input.ReminderID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerEnrollment(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-enrollment-reminders",
		Method:      http.MethodGet,
		Path:        "/reminders/enrollment",
		Summary:     "List hearings whose enrollment is due",
		Description: "Hearings requiring enrollment whose reminder window is open: today is on or after the reminder date and before the hearing date.",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Hearing `json:"body"`
	}, error) {
		items, err := e.ListEnrollmentReminders(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Hearing `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-enrollment",
		Method:      http.MethodPost,
		Path:        "/hearings/{hearing_id}/enrollment-done",
		Summary:     "Mark a hearing's enrollment as done",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		HearingID string `path:"hearing_id"`
	}) (*struct {
		Body domain.Hearing `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		h, err := e.MarkEnrollmentComplete(ctx, input.HearingID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Hearing `json:"body"`
		}{Body: h}, nil
	})
}

func registerAlerts(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-hearing-alerts",
		Method:      http.MethodGet,
		Path:        "/hearings/{hearing_id}/alerts",
		Summary:     "List alerts raised for a hearing",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		HearingID string `path:"hearing_id"`
	}) (*struct {
		Body []domain.Alert `json:"body"`
	}, error) {
		if _, err := e.Repo.GetHearing(ctx, input.HearingID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListAlertsByHearing(ctx, input.HearingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Alert `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "flush-alerts",
		Method:      http.MethodPost,
		Path:        "/alerts/flush",
		Summary:     "Send all pending alerts",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]int `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		sent, err := e.FlushPending(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int `json:"body"`
		}{Body: map[string]int{"sent": sent}}, nil
	})
}

func registerSweep(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "run-sweep",
		Method:      http.MethodPost,
		Path:        "/sweep/run",
		Summary:     "Run the daily sweep now",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.SweepReport `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		report, err := e.RunDailySweep(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.SweepReport `json:"body"`
		}{Body: report}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sweep-status",
		Method:      http.MethodGet,
		Path:        "/sweep/status",
		Summary:     "Count hearings the next sweep would flag",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SweepStatusResponse `json:"body"`
	}, error) {
		n, err := e.CountLapsed(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SweepStatusResponse `json:"body"`
		}{Body: SweepStatusResponse{Lapsed: n}}, nil
	})
}

func registerAPIKeys(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/apikeys",
		Summary:       "Create an API key",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyCreatedResponse `json:"body"`
	}, error) {
		if input.Body.ActorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		key := uuid.New().String()
		record := domain.APIKey{
			ID:      uuid.New().String(),
			ActorID: input.Body.ActorID,
			Name:    input.Body.Name,
			KeyHash: repo.HashAPIKey(key),
		}
		if err := e.Repo.InsertAPIKey(ctx, record); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body APIKeyCreatedResponse `json:"body"`
		}{Body: APIKeyCreatedResponse{
			ID:      record.ID,
			ActorID: record.ActorID,
			Name:    record.Name,
			Key:     key,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List API keys",
	}, func(ctx context.Context, input *struct {
		ActorID string `query:"actor_id" required:"false"`
	}) (*struct {
		Body []domain.APIKey `json:"body"`
	}, error) {
		items, err := e.Repo.ListAPIKeys(ctx, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.APIKey `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-api-key",
		Method:        http.MethodDelete,
		Path:          "/apikeys/{key_id}",
		Summary:       "Delete an API key",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct {
		KeyID string `path:"key_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteAPIKey(ctx, input.KeyID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
