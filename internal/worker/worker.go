package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/config"
	"github.com/prudhvinik1/crmsync/internal/hubspot"
	"github.com/prudhvinik1/crmsync/internal/models"
)

// CRMClient is the remote API surface the worker drives. *hubspot.Client
// implements it; tests substitute fakes.
type CRMClient interface {
	SearchObjects(ctx context.Context, accessToken string, objectType hubspot.ObjectType, req *hubspot.SearchRequest) (*hubspot.SearchResponse, error)
	BatchReadAssociations(ctx context.Context, accessToken string, fromType, toType hubspot.ObjectType, ids []string) ([]hubspot.AssociationEdge, error)
	ListAssociations(ctx context.Context, accessToken string, objectType hubspot.ObjectType, objectID string, toType hubspot.ObjectType) ([]hubspot.AssociationResult, error)
	GetContact(ctx context.Context, accessToken, contactID string, properties []string) (*hubspot.Object, error)
	RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*hubspot.TokenResponse, error)
}

// DomainStore is the credential store: the single tenant document with its
// nested accounts, saved whole after every mutation.
type DomainStore interface {
	GetDomain(ctx context.Context) (*models.Domain, error)
	Save(ctx context.Context, domain *models.Domain) error
}

// ActionSink is the event store's append-only bulk-insert surface.
type ActionSink interface {
	InsertActions(ctx context.Context, actions []*models.Action) error
}

// Worker runs one full incremental sync: every account of the tenant,
// every object type per account, strictly sequentially.
type Worker struct {
	crm     CRMClient
	domains DomainStore
	actions ActionSink
	cfg     config.SyncConfig

	clientID     string
	clientSecret string
	log          *zap.Logger

	// Injected for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(crm CRMClient, domains DomainStore, actions ActionSink, cfg config.SyncConfig, clientID, clientSecret string, log *zap.Logger) *Worker {
	return &Worker{
		crm:          crm,
		domains:      domains,
		actions:      actions,
		cfg:          cfg,
		clientID:     clientID,
		clientSecret: clientSecret,
		log:          log,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// Run performs one full sync run. Per-account and per-object-type failures
// are logged and isolated; only a missing tenant record is fatal.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("start pulling data from HubSpot")

	domain, err := w.domains.GetDomain(ctx)
	if err != nil {
		return fmt.Errorf("failed to load domain: %w", err)
	}

	for _, account := range domain.Accounts {
		log := w.log.With(zap.String("hub_id", account.HubID))
		log.Info("start processing account")

		if err := w.refreshAccessToken(ctx, account); err != nil {
			// Not fatal: every remote call refreshes on demand when the
			// cached expiration has passed.
			log.Error("failed to refresh access token",
				zap.String("operation", "refreshAccessToken"), zap.Error(err))
		}

		q := NewBatcher(w.actions, w.cfg.FlushThreshold, w.cfg.QueueCapacity, log)

		if err := w.ProcessContacts(ctx, domain, account, q); err != nil {
			log.Error("failed to process contacts",
				zap.String("operation", "processContacts"), zap.Error(err))
		}
		if err := w.ProcessCompanies(ctx, domain, account, q); err != nil {
			log.Error("failed to process companies",
				zap.String("operation", "processCompanies"), zap.Error(err))
		}
		if err := w.ProcessMeetings(ctx, domain, account, q); err != nil {
			log.Error("failed to process meetings",
				zap.String("operation", "processMeetings"), zap.Error(err))
		}

		if err := q.Drain(ctx); err != nil {
			log.Error("failed to drain action queue",
				zap.String("operation", "drainQueue"), zap.Error(err))
		}

		if err := w.domains.Save(ctx, domain); err != nil {
			log.Error("failed to save domain", zap.Error(err))
		}

		log.Info("finish processing account")
	}

	w.log.Info("finished pulling data from HubSpot")
	return nil
}

// The token exchange gets a tighter retry budget than data calls and never
// triggers a nested refresh.
const refreshMaxRetries = 2

// refreshAccessToken exchanges the account's refresh token for a new access
// token and caches the new expiration on the account. The caller persists
// the mutation.
func (w *Worker) refreshAccessToken(ctx context.Context, account *models.HubspotAccount) error {
	token, err := retryCall(ctx, w, account, "refreshAccessToken",
		retryOptions{maxRetries: refreshMaxRetries},
		func(ctx context.Context) (*hubspot.TokenResponse, error) {
			return w.crm.RefreshToken(ctx, w.clientID, w.clientSecret, account.RefreshToken)
		})
	if err != nil {
		return err
	}

	account.TokenExpiresAt = w.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if token.AccessToken != account.AccessToken {
		account.AccessToken = token.AccessToken
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
