package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"hpic-membership/internal/domain"
)

const (
	crmPageSize       = 200
	crmRequestTimeout = 30 * time.Second
	crmDateLayout     = "2006-01-02"
)

// crmMemberPage is one page of the CRM members endpoint.
type crmMemberPage struct {
	Items []crmMember `json:"items"`
	Total int         `json:"total_items"`
}

type crmMember struct {
	ExternalID      string `json:"external_id"`
	MembershipLevel string `json:"membership_level"`
	Status          string `json:"status"`
	DateJoined      string `json:"date_joined"`
	DateLapsed      string `json:"date_lapsed"`
}

// CRMAPISource reads the full member roster from the CRM REST API,
// paginating until the reported total is reached. All requests share a
// client-side rate limiter so a full sweep stays inside the CRM's quota.
type CRMAPISource struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

var _ domain.MemberSource = (*CRMAPISource)(nil)

// NewCRMAPISource creates a source for the CRM API at baseURL. rps and burst
// configure the request rate limiter.
func NewCRMAPISource(name, baseURL, apiKey string, rps float64, burst int) *CRMAPISource {
	return &CRMAPISource{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: crmRequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (s *CRMAPISource) Name() string { return s.name }

// Fetch pages through /members until total_items records have been read.
// Any transport or HTTP failure aborts with a SourceError; a record missing
// required fields aborts with a MalformedRecordError.
func (s *CRMAPISource) Fetch(ctx context.Context) ([]domain.MemberRecord, error) {
	var records []domain.MemberRecord
	offset := 0

	for {
		page, err := s.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for i, item := range page.Items {
			rec, err := s.normalize(item, offset+i)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		offset += len(page.Items)
		if offset >= page.Total || len(page.Items) == 0 {
			break
		}
	}

	return records, nil
}

func (s *CRMAPISource) fetchPage(ctx context.Context, offset int) (*crmMemberPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, domain.ErrSource(s.name, err)
	}

	endpoint, err := url.JoinPath(s.baseURL, "members")
	if err != nil {
		return nil, domain.ErrSource(s.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.ErrSource(s.name, err)
	}
	q := req.URL.Query()
	q.Set("limit", strconv.Itoa(crmPageSize))
	q.Set("offset", strconv.Itoa(offset))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.ErrSource(s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.ErrSource(s.name, fmt.Errorf("GET %s: status %d: %s", req.URL.Path, resp.StatusCode, body))
	}

	var page crmMemberPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, domain.ErrSource(s.name, fmt.Errorf("decode page at offset %d: %w", offset, err))
	}
	return &page, nil
}

func (s *CRMAPISource) normalize(item crmMember, position int) (domain.MemberRecord, error) {
	locator := fmt.Sprintf("position %d, id %q", position, item.ExternalID)

	if item.ExternalID == "" {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "missing external_id")
	}

	status, ok := normalizeStatus(item.Status)
	if !ok {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "unrecognized status %q", item.Status)
	}

	joined, err := time.Parse(crmDateLayout, item.DateJoined)
	if err != nil {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "bad date_joined %q", item.DateJoined)
	}

	var inactiveOn *time.Time
	if item.DateLapsed != "" {
		t, err := time.Parse(crmDateLayout, item.DateLapsed)
		if err != nil {
			return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "bad date_lapsed %q", item.DateLapsed)
		}
		inactiveOn = &t
	}

	rec := domain.MemberRecord{
		ID:         item.ExternalID,
		Source:     s.name,
		Tier:       normalizeTier(item.MembershipLevel),
		Status:     status,
		JoinedOn:   joined,
		InactiveOn: inactiveOn,
	}
	if err := rec.Validate(); err != nil {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "%v", err)
	}
	return rec, nil
}
