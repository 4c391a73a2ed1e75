package assignment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/kafka"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	// conflicts forces that many ErrVersionConflict results before
	// UpdateOrder starts succeeding.
	conflicts int
	updates   int
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		cp := *o
		r.orders[o.ID] = &cp
	}
	return r
}

func (r *fakeOrderRepo) GetOrderByID(orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) CreateOrder(order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateOrder(order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ErrVersionConflict
	}
	stored, ok := r.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return domain.ErrVersionConflict
	}
	cp := *order
	cp.Version++
	r.orders[order.ID] = &cp
	order.Version++
	return nil
}

func (r *fakeOrderRepo) FindOrdersReadyForRetry(now time.Time, limit int) ([]*domain.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) FindDeadLetteredOrders(page, limit int) ([]*domain.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) CountFailedOrders() (int64, error)                    { return 0, nil }
func (r *fakeOrderRepo) CountFailedOrdersSince(time.Time) (int64, error)      { return 0, nil }
func (r *fakeOrderRepo) CountDeadLetteredOrders() (int64, error)              { return 0, nil }
func (r *fakeOrderRepo) CountOrdersPendingRetry(time.Time) (int64, error)     { return 0, nil }
func (r *fakeOrderRepo) GetErrorTypeCounts() ([]domain.ErrorTypeCount, error) { return nil, nil }

type fakeCampaignRepo struct {
	byGeo map[string][]*domain.FixedCampaign
	top   []*domain.FixedCampaign
	err   error
}

func (r *fakeCampaignRepo) FindActiveByGeo(geo string, limit int) ([]*domain.FixedCampaign, error) {
	if r.err != nil {
		return nil, r.err
	}
	campaigns := r.byGeo[geo]
	if len(campaigns) > limit {
		campaigns = campaigns[:limit]
	}
	return campaigns, nil
}

func (r *fakeCampaignRepo) FindTopActive(limit int) ([]*domain.FixedCampaign, error) {
	if r.err != nil {
		return nil, r.err
	}
	campaigns := r.top
	if len(campaigns) > limit {
		campaigns = campaigns[:limit]
	}
	return campaigns, nil
}

type fakeCoefficientRepo struct {
	coefficients map[string]*domain.ConversionCoefficient
	err          error
}

func coefficientKey(serviceID int64, withoutClip bool) string {
	return fmt.Sprintf("%d:%t", serviceID, withoutClip)
}

func (r *fakeCoefficientRepo) GetByServiceID(serviceID int64, withoutClip bool) (*domain.ConversionCoefficient, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.coefficients[coefficientKey(serviceID, withoutClip)], nil
}

type fakeAssignmentRepo struct {
	mu      sync.Mutex
	rows    map[string][]*domain.CampaignAssignment
	deletes int
	failAt  int // 1-based Create call to fail, 0 means never
	creates int
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{rows: make(map[string][]*domain.CampaignAssignment)}
}

func (r *fakeAssignmentRepo) Create(a *domain.CampaignAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.failAt > 0 && r.creates == r.failAt {
		return fmt.Errorf("insert failed")
	}
	cp := *a
	r.rows[a.OrderID] = append(r.rows[a.OrderID], &cp)
	return nil
}

func (r *fakeAssignmentRepo) GetByOrderID(orderID string) ([]*domain.CampaignAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[orderID], nil
}

func (r *fakeAssignmentRepo) FindActive() ([]*domain.CampaignAssignment, error) {
	return nil, nil
}

func (r *fakeAssignmentRepo) UpdateStats(*domain.CampaignAssignment) error { return nil }
func (r *fakeAssignmentRepo) DeactivateByOrderID(string) error             { return nil }

func (r *fakeAssignmentRepo) DeleteByOrderID(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	delete(r.rows, orderID)
	return nil
}

type fakeGateway struct {
	mu sync.Mutex

	offers  map[string]string // offer name -> offer id
	created []domain.OfferSpec

	assignCalls  int
	failAssignAt int // 1-based call index to fail, 0 means never
	assignErr    error
	assigned     []string

	// onFirstAssign runs outside the lock after the first successful
	// campaign assignment, simulating work that lands mid-attempt.
	onFirstAssign func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{offers: make(map[string]string)}
}

func (g *fakeGateway) CheckOffer(_ context.Context, name string) (*domain.CheckOfferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.offers[name]; ok {
		return &domain.CheckOfferResult{Exists: true, OfferID: id}, nil
	}
	return &domain.CheckOfferResult{}, nil
}

func (g *fakeGateway) CreateOffer(_ context.Context, spec domain.OfferSpec) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, spec)
	id := fmt.Sprintf("offer-%d", len(g.created))
	g.offers[spec.Name] = id
	return id, nil
}

func (g *fakeGateway) AssignOfferToCampaign(_ context.Context, campaignID, offerID string) error {
	g.mu.Lock()
	g.assignCalls++
	call := g.assignCalls
	if g.failAssignAt > 0 && call == g.failAssignAt {
		err := g.assignErr
		g.mu.Unlock()
		if err != nil {
			return err
		}
		return domain.NewRetryableError(domain.ErrorTypeExternal, fmt.Errorf("platform 500"))
	}
	g.assigned = append(g.assigned, campaignID)
	hook := g.onFirstAssign
	g.mu.Unlock()
	if hook != nil && call == 1 {
		hook()
	}
	return nil
}

func (g *fakeGateway) GetCampaignStats(context.Context, string) (*domain.CampaignStats, error) {
	return &domain.CampaignStats{}, nil
}

func (g *fakeGateway) PauseCampaign(string)  {}
func (g *fakeGateway) ResumeCampaign(string) {}
func (g *fakeGateway) StopCampaign(string)   {}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.AssignmentEvent
}

func (p *fakePublisher) PublishAssignment(_ string, event kafka.AssignmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAudit) record(action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func (a *fakeAudit) LogAssignmentCreated(context.Context, string, string, []string, int) error {
	return a.record("ASSIGNMENT_CREATED")
}

func (a *fakeAudit) LogAssignmentFailed(context.Context, string, string, string) error {
	return a.record("ASSIGNMENT_FAILED")
}

func (a *fakeAudit) LogOrderDeadLettered(context.Context, string, string, int) error {
	return a.record("ORDER_DEAD_LETTERED")
}

func (a *fakeAudit) LogCampaignAction(context.Context, string, string) error {
	return a.record("CAMPAIGN_ACTION")
}

func (a *fakeAudit) LogManualAction(_ context.Context, _, _, action, _ string) error {
	return a.record(action)
}
