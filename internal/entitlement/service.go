// Package entitlement answers "is this user premium" from the RevenueCat
// REST API. It has an explicit lifecycle: Init configures the service,
// Close tears it down, and an uninitialized service reports no premium.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.revenuecat.com"

// DefaultIDs are the entitlement identifiers that grant premium.
var DefaultIDs = []string{"premium", "pro", "Premium", "premium_access"}

var ErrMissingAPIKey = errors.New("entitlement api key is missing")

type Service struct {
	BaseURL    string
	APIKey     string
	AppUserID  string
	IDs        []string
	HTTPClient *http.Client
	Timeout    time.Duration
	Log        zerolog.Logger
	Now        func() time.Time

	mu          sync.Mutex
	initialized bool
}

// New creates an uninitialized service.
func New(apiKey, appUserID string, log zerolog.Logger) *Service {
	return &Service{
		BaseURL:   DefaultBaseURL,
		APIKey:    apiKey,
		AppUserID: appUserID,
		IDs:       DefaultIDs,
		Timeout:   15 * time.Second,
		Log:       log,
		Now:       time.Now,
	}
}

// Init configures the service. Calling it again is a no-op.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if s.APIKey == "" {
		return ErrMissingAPIKey
	}
	if s.AppUserID == "" {
		return fmt.Errorf("entitlement app user id is missing")
	}
	if s.HTTPClient == nil {
		s.HTTPClient = &http.Client{Timeout: s.Timeout}
	}
	s.initialized = true
	s.Log.Debug().Str("app_user_id", s.AppUserID).Msg("entitlement service initialized")
	return nil
}

// Initialized reports whether Init succeeded and Close was not called since.
func (s *Service) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
	return nil
}

type entitlementInfo struct {
	ExpiresDate       *string `json:"expires_date"`
	ProductIdentifier string  `json:"product_identifier"`
}

type subscriberResponse struct {
	Subscriber struct {
		OriginalAppUserID string                     `json:"original_app_user_id"`
		Entitlements      map[string]entitlementInfo `json:"entitlements"`
	} `json:"subscriber"`
}

// ActiveEntitlements lists the subscriber's entitlements that have not
// expired, sorted by id.
func (s *Service) ActiveEntitlements(ctx context.Context) ([]string, error) {
	if !s.Initialized() {
		return nil, fmt.Errorf("entitlement service not initialized")
	}
	var resp subscriberResponse
	endpoint := fmt.Sprintf("%s/v1/subscribers/%s", strings.TrimRight(s.BaseURL, "/"), url.PathEscape(s.AppUserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Accept", "application/json")
	res, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("subscriber lookup failed: status=%d body=%s", res.StatusCode, b)
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode subscriber: %w", err)
	}
	now := s.now()
	var active []string
	for id, e := range resp.Subscriber.Entitlements {
		if isActive(e, now) {
			active = append(active, id)
		}
	}
	sort.Strings(active)
	return active, nil
}

// IsPremium reports whether any configured entitlement is active. It
// initializes lazily and answers false, logged, on any failure.
func (s *Service) IsPremium(ctx context.Context) bool {
	if err := s.Init(ctx); err != nil {
		s.Log.Warn().Err(err).Msg("entitlement service not initialized, treating as free")
		return false
	}
	active, err := s.ActiveEntitlements(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("premium check failed")
		return false
	}
	for _, id := range s.IDs {
		for _, a := range active {
			if a == id {
				return true
			}
		}
	}
	return false
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func isActive(e entitlementInfo, now time.Time) bool {
	if e.ExpiresDate == nil || *e.ExpiresDate == "" {
		return true
	}
	exp, err := time.Parse(time.RFC3339, *e.ExpiresDate)
	if err != nil {
		return false
	}
	return exp.After(now)
}
