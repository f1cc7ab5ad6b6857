package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	statusCancelled = "cancelled"
	defaultTimeout  = 10 * time.Second

	allDayDateFormat = "2006-01-02"
)

var tracer = otel.Tracer("github.com/m04kA/AgencyBookingService/internal/integrations/googlecalendar")

// Client клиент Google Calendar для событий встреч
type Client struct {
	service    *calendar.Service
	calendarID string
	timezone   string
	location   *time.Location
	timeout    time.Duration
}

// NewClient создает клиент по файлу сервисного аккаунта
func NewClient(ctx context.Context, credentialsFile, calendarID, timezone string, timeout time.Duration) (*Client, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read credentials file: %v", ErrInvalidConfig, err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse credentials: %v", ErrInvalidConfig, err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create calendar service: %v", ErrInvalidConfig, err)
	}

	return NewClientWithService(srv, calendarID, timezone, timeout), nil
}

// NewClientWithService создает клиент поверх готового calendar.Service
func NewClientWithService(srv *calendar.Service, calendarID, timezone string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		location = time.UTC
	}
	return &Client{
		service:    srv,
		calendarID: calendarID,
		timezone:   timezone,
		location:   location,
		timeout:    timeout,
	}
}

// CreateEvent создает событие и возвращает его ID
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "googlecalendar.CreateEvent")
	defer span.End()

	created, err := c.service.Events.Insert(c.calendarID, c.toAPIEvent(input)).Context(ctx).Do()
	if err != nil {
		err = classify("CreateEvent", err)
		recordError(span, err)
		return "", err
	}
	if created.Id == "" {
		return "", fmt.Errorf("%w: CreateEvent - empty event id", ErrInvalidResponse)
	}

	span.SetAttributes(attribute.String("calendar.event_id", created.Id))
	return created.Id, nil
}

// GetEvent читает событие. Отмененные события считаются отсутствующими
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "googlecalendar.GetEvent")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.event_id", eventID))

	ev, err := c.service.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		err = classify("GetEvent", err)
		recordError(span, err)
		return nil, err
	}
	if ev.Status == statusCancelled {
		return nil, ErrEventNotFound
	}

	return c.fromAPIEvent(ev)
}

// UpdateEvent полностью перезаписывает содержимое события
func (c *Client) UpdateEvent(ctx context.Context, eventID string, input EventInput) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "googlecalendar.UpdateEvent")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.event_id", eventID))

	if _, err := c.service.Events.Update(c.calendarID, eventID, c.toAPIEvent(input)).Context(ctx).Do(); err != nil {
		err = classify("UpdateEvent", err)
		recordError(span, err)
		return err
	}
	return nil
}

// DeleteEvent удаляет событие
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "googlecalendar.DeleteEvent")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.event_id", eventID))

	if err := c.service.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		err = classify("DeleteEvent", err)
		recordError(span, err)
		return err
	}
	return nil
}

func (c *Client) toAPIEvent(input EventInput) *calendar.Event {
	return &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
	}
}

// fromAPIEvent событие на весь день (только date) читается как полночь в часовом поясе календаря
func (c *Client) fromAPIEvent(ev *calendar.Event) (*Event, error) {
	start, err := parseEventTime(ev.Start, c.location)
	if err != nil {
		return nil, fmt.Errorf("%w: event %s start: %v", ErrInvalidResponse, ev.Id, err)
	}
	end, err := parseEventTime(ev.End, c.location)
	if err != nil {
		return nil, fmt.Errorf("%w: event %s end: %v", ErrInvalidResponse, ev.Id, err)
	}

	return &Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       start,
		End:         end,
	}, nil
}

func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, error) {
	switch {
	case dt == nil:
		return time.Time{}, errors.New("missing time")
	case dt.DateTime != "":
		return time.Parse(time.RFC3339, dt.DateTime)
	case dt.Date != "":
		return time.ParseInLocation(allDayDateFormat, dt.Date, loc)
	}
	return time.Time{}, errors.New("missing dateTime and date")
}

// classify приводит ошибки API к ошибкам пакета
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusGone:
			return ErrEventNotFound
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			if apiErr.Code == http.StatusForbidden && isRateLimited(apiErr) {
				break
			}
			return fmt.Errorf("%w: %s - rejected with status %d: %s", ErrInvalidResponse, op, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w: %s - status %d: %s", ErrRequestFailed, op, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %s: %v", ErrRequestFailed, op, err)
}

func isRateLimited(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}

func recordError(span trace.Span, err error) {
	if errors.Is(err, ErrEventNotFound) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
