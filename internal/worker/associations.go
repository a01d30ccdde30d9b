package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/hubspot"
	"github.com/prudhvinik1/crmsync/internal/models"
)

// resolveCompanyAssociations maps each contact id on a page to its first
// associated company id, in one batched read. Contacts with no association
// are simply absent from the map.
func (w *Worker) resolveCompanyAssociations(ctx context.Context, account *models.HubspotAccount, contactIDs []string) (map[string]string, error) {
	associations := make(map[string]string, len(contactIDs))
	if len(contactIDs) == 0 {
		return associations, nil
	}

	edges, err := retryCall(ctx, w, account, "batchReadAssociations", w.searchRetryOptions(),
		func(ctx context.Context) ([]hubspot.AssociationEdge, error) {
			return w.crm.BatchReadAssociations(ctx, account.AccessToken,
				hubspot.ObjectContacts, hubspot.ObjectCompanies, contactIDs)
		})
	if err != nil {
		return nil, err
	}

	for _, edge := range edges {
		if edge.From.ID == "" || len(edge.To) == 0 {
			continue
		}
		associations[edge.From.ID] = edge.To[0].ID
	}
	return associations, nil
}

// resolveMeetingContacts maps each meeting on a page to the email of its
// first associated contact. Lookups are best-effort enrichment: a failed
// lookup is logged and that meeting proceeds with no identity.
func (w *Worker) resolveMeetingContacts(ctx context.Context, account *models.HubspotAccount, meetings []hubspot.Object) map[string]string {
	log := w.log.With(zap.String("hub_id", account.HubID))
	log.Info("fetching associated contacts", zap.Int("meetings", len(meetings)))

	meetingToContact := make(map[string]string, len(meetings))
	for _, meeting := range meetings {
		email, err := w.lookupMeetingContactEmail(ctx, account, meeting.ID)
		if err != nil {
			log.Info("error fetching associated contact",
				zap.String("operation", "fetchAssociatedContacts"),
				zap.String("meeting_id", meeting.ID),
				zap.Error(err))
			continue
		}
		if email != "" {
			meetingToContact[meeting.ID] = email
		}
	}
	return meetingToContact
}

func (w *Worker) lookupMeetingContactEmail(ctx context.Context, account *models.HubspotAccount, meetingID string) (string, error) {
	results, err := retryCall(ctx, w, account, "listMeetingAssociations", w.searchRetryOptions(),
		func(ctx context.Context) ([]hubspot.AssociationResult, error) {
			return w.crm.ListAssociations(ctx, account.AccessToken,
				hubspot.ObjectMeetings, meetingID, hubspot.ObjectContacts)
		})
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	contact, err := retryCall(ctx, w, account, "getContact", w.searchRetryOptions(),
		func(ctx context.Context) (*hubspot.Object, error) {
			return w.crm.GetContact(ctx, account.AccessToken, results[0].ToObjectID, []string{"email"})
		})
	if err != nil {
		return "", err
	}
	return contact.Properties["email"], nil
}
