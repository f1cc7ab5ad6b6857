package leadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

const (
	codeSlotAlreadyBooked = "slot_already_booked"

	// legacySlotTakenMarker текст конфликта у старых версий API без поля code
	legacySlotTakenMarker = "already booked"

	maxErrorBody = 4 << 10
)

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// Client клиент HTTP API заявок
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента API заявок
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// CreateLead создает заявку. Конфликт слота возвращается как ErrSlotAlreadyBooked
func (c *Client) CreateLead(ctx context.Context, in CreateLeadRequest) (*Lead, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateLead - marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/leads", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: CreateLead - failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateLead - failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
	case http.StatusConflict:
		apiErr := readError(resp.Body)
		if isSlotTaken(apiErr) {
			c.log.Warn("CreateLead - slot %s %s already booked", in.MeetingDate, in.MeetingTime)
			return nil, ErrSlotAlreadyBooked
		}
		return nil, fmt.Errorf("%w: CreateLead - conflict: %s", ErrInvalidResponse, apiErr.Message)
	case http.StatusBadRequest:
		apiErr := readError(resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrValidation, apiErr.Message)
	default:
		apiErr := readError(resp.Body)
		return nil, fmt.Errorf("%w: CreateLead - unexpected status code %d: %s",
			ErrInvalidResponse, resp.StatusCode, apiErr.Message)
	}

	var lead Lead
	if err := json.NewDecoder(resp.Body).Decode(&lead); err != nil {
		return nil, fmt.Errorf("%w: CreateLead - failed to decode response: %v", ErrInvalidResponse, err)
	}

	c.log.Info("CreateLead - lead_id=%d created for %s %s", lead.ID, lead.MeetingDate, lead.MeetingTime)
	return &lead, nil
}

// GetClaimedSlots возвращает занятые слоты на дату
func (c *Client) GetClaimedSlots(ctx context.Context, date time.Time) ([]types.TimeString, error) {
	query := url.Values{"date": []string{date.Format(domain.DateFormat)}}
	endpoint := c.baseURL + "/api/v1/slots?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: GetClaimedSlots - failed to create request: %v", ErrInternal, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GetClaimedSlots - failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := readError(resp.Body)
		return nil, fmt.Errorf("%w: GetClaimedSlots - unexpected status code %d: %s",
			ErrInvalidResponse, resp.StatusCode, apiErr.Message)
	}

	var slots slotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, fmt.Errorf("%w: GetClaimedSlots - failed to decode response: %v", ErrInvalidResponse, err)
	}

	claimed := make([]types.TimeString, 0, len(slots.ClaimedSlots))
	for _, raw := range slots.ClaimedSlots {
		t, err := types.NewTimeStringFromString(raw)
		if err != nil {
			c.log.Warn("GetClaimedSlots - skipping malformed slot %q: %v", raw, err)
			continue
		}
		claimed = append(claimed, t)
	}
	return claimed, nil
}

// readError читает тело ошибки; не-JSON тело целиком попадает в Message
func readError(body io.Reader) ErrorResponse {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))

	var apiErr ErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
		return ErrorResponse{Message: strings.TrimSpace(string(raw))}
	}
	return apiErr
}

func isSlotTaken(apiErr ErrorResponse) bool {
	if apiErr.Code != "" {
		return apiErr.Code == codeSlotAlreadyBooked
	}
	return strings.Contains(strings.ToLower(apiErr.Message), legacySlotTakenMarker)
}
