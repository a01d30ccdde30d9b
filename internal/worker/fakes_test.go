package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/config"
	"github.com/prudhvinik1/crmsync/internal/hubspot"
	"github.com/prudhvinik1/crmsync/internal/models"
)

// fakeCRM implements CRMClient with per-call hooks and call counters.
type fakeCRM struct {
	mu sync.Mutex

	searchFn     func(objectType hubspot.ObjectType, req *hubspot.SearchRequest) (*hubspot.SearchResponse, error)
	batchReadFn  func(fromType, toType hubspot.ObjectType, ids []string) ([]hubspot.AssociationEdge, error)
	listAssocFn  func(objectType hubspot.ObjectType, objectID string, toType hubspot.ObjectType) ([]hubspot.AssociationResult, error)
	getContactFn func(contactID string) (*hubspot.Object, error)
	refreshFn    func(refreshToken string) (*hubspot.TokenResponse, error)

	searchCalls  int
	refreshCalls int
	searchReqs   []*hubspot.SearchRequest
	searchTypes  []hubspot.ObjectType
}

func (f *fakeCRM) SearchObjects(_ context.Context, _ string, objectType hubspot.ObjectType, req *hubspot.SearchRequest) (*hubspot.SearchResponse, error) {
	f.mu.Lock()
	f.searchCalls++
	f.searchReqs = append(f.searchReqs, req)
	f.searchTypes = append(f.searchTypes, objectType)
	f.mu.Unlock()

	if f.searchFn != nil {
		return f.searchFn(objectType, req)
	}
	return &hubspot.SearchResponse{}, nil
}

func (f *fakeCRM) BatchReadAssociations(_ context.Context, _ string, fromType, toType hubspot.ObjectType, ids []string) ([]hubspot.AssociationEdge, error) {
	if f.batchReadFn != nil {
		return f.batchReadFn(fromType, toType, ids)
	}
	return nil, nil
}

func (f *fakeCRM) ListAssociations(_ context.Context, _ string, objectType hubspot.ObjectType, objectID string, toType hubspot.ObjectType) ([]hubspot.AssociationResult, error) {
	if f.listAssocFn != nil {
		return f.listAssocFn(objectType, objectID, toType)
	}
	return nil, nil
}

func (f *fakeCRM) GetContact(_ context.Context, _ string, contactID string, _ []string) (*hubspot.Object, error) {
	if f.getContactFn != nil {
		return f.getContactFn(contactID)
	}
	return &hubspot.Object{ID: contactID, Properties: map[string]string{}}, nil
}

func (f *fakeCRM) RefreshToken(_ context.Context, _, _, refreshToken string) (*hubspot.TokenResponse, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()

	if f.refreshFn != nil {
		return f.refreshFn(refreshToken)
	}
	return &hubspot.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600}, nil
}

type fakeDomainStore struct {
	domain *models.Domain
	getErr error

	mu    sync.Mutex
	saves int
}

func (f *fakeDomainStore) GetDomain(context.Context) (*models.Domain, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.domain, nil
}

func (f *fakeDomainStore) Save(context.Context, *models.Domain) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return nil
}

func (f *fakeDomainStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeSink struct {
	mu        sync.Mutex
	batches   [][]*models.Action
	insertErr error
}

func (f *fakeSink) InsertActions(_ context.Context, actions []*models.Action) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	f.batches = append(f.batches, actions)
	f.mu.Unlock()
	return nil
}

func (f *fakeSink) allActions() []*models.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*models.Action
	for _, batch := range f.batches {
		all = append(all, batch...)
	}
	return all
}

func (f *fakeSink) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func newTestWorker(crm *fakeCRM, store *fakeDomainStore, sink *fakeSink) *Worker {
	cfg := config.SyncConfig{
		PageLimit:      100,
		MaxOffset:      9900,
		FlushThreshold: 2000,
		QueueCapacity:  64,
		MaxRetries:     4,
		RetryBaseDelay: time.Millisecond,
	}
	w := New(crm, store, sink, cfg, "client-id", "client-secret", zap.NewNop())
	w.sleep = func(context.Context, time.Duration) error { return nil }
	return w
}

func testAccount() *models.HubspotAccount {
	return &models.HubspotAccount{
		ID:             uuid.New(),
		HubID:          "12345",
		AccessToken:    "access-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
}

func testDomain(accounts ...*models.HubspotAccount) *models.Domain {
	return &models.Domain{ID: uuid.New(), APIKey: "api-key", Accounts: accounts}
}

// makeObjects builds a page of CRM records with sequential ids.
func makeObjects(prefix string, n int, createdAt, updatedAt time.Time, properties map[string]string) []hubspot.Object {
	objects := make([]hubspot.Object, 0, n)
	for i := 0; i < n; i++ {
		props := map[string]string{}
		for k, v := range properties {
			props[k] = v
		}
		objects = append(objects, hubspot.Object{
			ID:         fmt.Sprintf("%s-%d", prefix, i),
			Properties: props,
			CreatedAt:  createdAt,
			UpdatedAt:  updatedAt,
		})
	}
	return objects
}

var errRemote = errors.New("remote call failed")
