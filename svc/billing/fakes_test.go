package billing_test

import (
	"context"
	"errors"
	"sync"

	"github.com/inkstrip/inkstrip/svc/billing"
	"github.com/inkstrip/inkstrip/svc/usage"
)

type fakeStore struct {
	mu sync.Mutex

	users  map[string]*usage.User
	events map[string]billing.ProcessedEvent

	consents   []billing.Consent
	consentErr error

	getUserErr error
	setPlanErr error

	setPlanCalls   int
	resetPlanCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*usage.User),
		events: make(map[string]billing.ProcessedEvent),
	}
}

func (s *fakeStore) addUser(u usage.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := u
	s.users[u.ID] = &copied
}

func (s *fakeStore) user(id string) usage.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*usage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	user, ok := s.users[id]
	if !ok {
		return nil, usage.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) GetUserByCustomerID(_ context.Context, customerID string) (*usage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.BillingCustomerID == customerID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, usage.ErrUserNotFound
}

func (s *fakeStore) SetBillingCustomer(_ context.Context, userID, email, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		user = &usage.User{ID: userID, Email: email, Plan: usage.PlanFree}
		s.users[userID] = user
	}
	user.BillingCustomerID = customerID
	return nil
}

func (s *fakeStore) SetPlan(_ context.Context, userID string, plan usage.Plan, customerID, subscriptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPlanCalls++
	if s.setPlanErr != nil {
		return s.setPlanErr
	}
	user, ok := s.users[userID]
	if !ok {
		return usage.ErrUserNotFound
	}
	user.Plan = plan
	if customerID != "" {
		user.BillingCustomerID = customerID
	}
	user.BillingSubscriptionID = subscriptionID
	return nil
}

func (s *fakeStore) ResetPlan(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetPlanCalls++
	user, ok := s.users[userID]
	if !ok {
		return usage.ErrUserNotFound
	}
	user.Plan = usage.PlanFree
	user.BillingSubscriptionID = ""
	return nil
}

func (s *fakeStore) MarkEventProcessed(_ context.Context, event billing.ProcessedEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.EventID]; ok {
		return true, nil
	}
	s.events[event.EventID] = event
	return false, nil
}

func (s *fakeStore) InsertConsent(_ context.Context, consent billing.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consentErr != nil {
		return s.consentErr
	}
	s.consents = append(s.consents, consent)
	return nil
}

type fakeProvider struct {
	mu sync.Mutex

	customerID  string
	customerErr error

	checkoutURL    string
	checkoutErr    error
	checkoutParams []billing.CheckoutSessionParams

	portalURL     string
	portalErr     error
	portalCalls   []string
	portalReturns []string

	createCustomerCalls int
}

func (p *fakeProvider) CreateCustomer(_ context.Context, email, userID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCustomerCalls++
	if p.customerErr != nil {
		return "", p.customerErr
	}
	if p.customerID == "" {
		return "", errors.New("fake provider: no customer ID configured")
	}
	return p.customerID, nil
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, params billing.CheckoutSessionParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkoutParams = append(p.checkoutParams, params)
	if p.checkoutErr != nil {
		return "", p.checkoutErr
	}
	return p.checkoutURL, nil
}

func (p *fakeProvider) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.portalCalls = append(p.portalCalls, customerID)
	p.portalReturns = append(p.portalReturns, returnURL)
	if p.portalErr != nil {
		return "", p.portalErr
	}
	return p.portalURL, nil
}
