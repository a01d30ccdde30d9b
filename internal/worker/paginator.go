package worker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/hubspot"
	"github.com/prudhvinik1/crmsync/internal/models"
)

// objectSpec parameterizes the paginated fetch loop for one CRM object type:
// where the changed-since property lives, which properties to pull, where the
// checkpoint is kept on the account, and how a fetched page becomes events.
type objectSpec struct {
	objectType       hubspot.ObjectType
	lastModifiedProp string
	properties       []string

	lastPulled    func(*models.HubspotAccount) time.Time
	setLastPulled func(*models.HubspotAccount, time.Time)
	emitPage      func(ctx context.Context, account *models.HubspotAccount, page []hubspot.Object, lastPulled time.Time, q *Batcher) error
}

// paginationCursor is the ephemeral per-run pagination state: the search
// offset and, after a rollover, the narrowed lower bound of the time window.
type paginationCursor struct {
	after            int
	hasAfter         bool
	lastModifiedDate time.Time
}

// ProcessContacts pages through recently modified contacts and emits one
// event per contact with an email, enriched with its company association.
func (w *Worker) ProcessContacts(ctx context.Context, domain *models.Domain, account *models.HubspotAccount, q *Batcher) error {
	return w.processObjectType(ctx, domain, account, objectSpec{
		objectType:       hubspot.ObjectContacts,
		lastModifiedProp: "lastmodifieddate",
		properties: []string{
			"firstname", "lastname", "jobtitle", "email",
			"hubspotscore", "hs_lead_status", "hs_analytics_source", "hs_latest_source",
		},
		lastPulled:    func(a *models.HubspotAccount) time.Time { return a.LastPulled.Contacts },
		setLastPulled: func(a *models.HubspotAccount, t time.Time) { a.LastPulled.Contacts = t },
		emitPage:      w.emitContactEvents,
	}, q)
}

// ProcessCompanies pages through recently modified companies.
func (w *Worker) ProcessCompanies(ctx context.Context, domain *models.Domain, account *models.HubspotAccount, q *Batcher) error {
	return w.processObjectType(ctx, domain, account, objectSpec{
		objectType:       hubspot.ObjectCompanies,
		lastModifiedProp: "hs_lastmodifieddate",
		properties: []string{
			"name", "domain", "country", "industry",
			"description", "annualrevenue", "numberofemployees", "hs_lead_status",
		},
		lastPulled:    func(a *models.HubspotAccount) time.Time { return a.LastPulled.Companies },
		setLastPulled: func(a *models.HubspotAccount, t time.Time) { a.LastPulled.Companies = t },
		emitPage:      w.emitCompanyEvents,
	}, q)
}

// ProcessMeetings pages through recently modified meetings, resolving each
// meeting's attendee email as its identity.
func (w *Worker) ProcessMeetings(ctx context.Context, domain *models.Domain, account *models.HubspotAccount, q *Batcher) error {
	return w.processObjectType(ctx, domain, account, objectSpec{
		objectType:       hubspot.ObjectMeetings,
		lastModifiedProp: "hs_lastmodifieddate",
		properties: []string{
			"hs_timestamp", "hs_meeting_title", "hubspot_owner_id", "hs_meeting_body",
			"hs_meeting_start_time", "hs_meeting_end_time", "hs_meeting_outcome",
		},
		lastPulled:    func(a *models.HubspotAccount) time.Time { return a.LastPulled.Meetings },
		setLastPulled: func(a *models.HubspotAccount, t time.Time) { a.LastPulled.Meetings = t },
		emitPage:      w.emitMeetingEvents,
	}, q)
}

// processObjectType drives the changed-since pagination loop for one object
// type. On completion it advances the account's checkpoint to the loop's
// start time and persists the domain; a search failure aborts only this type.
func (w *Worker) processObjectType(ctx context.Context, domain *models.Domain, account *models.HubspotAccount, spec objectSpec, q *Batcher) error {
	lastPulledDate := spec.lastPulled(account)
	now := w.now()
	log := w.log.With(
		zap.String("hub_id", account.HubID),
		zap.String("object_type", string(spec.objectType)))

	var cursor paginationCursor
	for {
		lastModifiedDate := lastPulledDate
		if !cursor.lastModifiedDate.IsZero() {
			lastModifiedDate = cursor.lastModifiedDate
		}

		searchReq := &hubspot.SearchRequest{
			FilterGroups: []hubspot.FilterGroup{
				lastModifiedDateFilter(lastModifiedDate, now, spec.lastModifiedProp),
			},
			Sorts: []hubspot.Sort{
				{PropertyName: spec.lastModifiedProp, Direction: "ASCENDING"},
			},
			Properties: spec.properties,
			Limit:      w.cfg.PageLimit,
		}
		if cursor.hasAfter {
			searchReq.After = strconv.Itoa(cursor.after)
		}

		operation := "search " + string(spec.objectType)
		searchResult, err := retryCall(ctx, w, account, operation, w.searchRetryOptions(),
			func(ctx context.Context) (*hubspot.SearchResponse, error) {
				return w.crm.SearchObjects(ctx, account.AccessToken, spec.objectType, searchReq)
			})
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", spec.objectType, err)
		}

		page := searchResult.Results
		log.Info("fetched batch", zap.Int("count", len(page)))

		if err := spec.emitPage(ctx, account, page, lastPulledDate, q); err != nil {
			return err
		}

		next, hasNext := nextAfter(searchResult)
		if !hasNext {
			break
		}
		if next >= w.cfg.MaxOffset && len(page) > 0 {
			// The API refuses to page deeper than ~10k results per search:
			// restart from offset zero with the window's lower bound moved
			// up to the newest record already seen.
			cursor = paginationCursor{
				after:            0,
				hasAfter:         true,
				lastModifiedDate: page[len(page)-1].UpdatedAt,
			}
			continue
		}
		cursor.after = next
		cursor.hasAfter = true
	}

	spec.setLastPulled(account, now)
	if err := w.domains.Save(ctx, domain); err != nil {
		return fmt.Errorf("failed to save domain after %s sync: %w", spec.objectType, err)
	}
	return nil
}

func nextAfter(resp *hubspot.SearchResponse) (int, bool) {
	if resp.Paging == nil || resp.Paging.Next == nil {
		return 0, false
	}
	next, err := strconv.Atoi(resp.Paging.Next.After)
	if err != nil {
		return 0, false
	}
	return next, true
}

// lastModifiedDateFilter constrains a search to records modified within
// (since, until]. A zero lower bound means the type has never been pulled
// and the group stays empty: fetch everything.
func lastModifiedDateFilter(since, until time.Time, propertyName string) hubspot.FilterGroup {
	if since.IsZero() {
		return hubspot.FilterGroup{}
	}
	return hubspot.FilterGroup{Filters: []hubspot.Filter{
		{PropertyName: propertyName, Operator: "GTE", Value: strconv.FormatInt(since.UnixMilli(), 10)},
		{PropertyName: propertyName, Operator: "LTE", Value: strconv.FormatInt(until.UnixMilli(), 10)},
	}}
}

func (w *Worker) emitContactEvents(ctx context.Context, account *models.HubspotAccount, page []hubspot.Object, lastPulled time.Time, q *Batcher) error {
	contactIDs := make([]string, 0, len(page))
	for _, contact := range page {
		contactIDs = append(contactIDs, contact.ID)
	}

	companyAssociations, err := w.resolveCompanyAssociations(ctx, account, contactIDs)
	if err != nil {
		return err
	}

	for _, contact := range page {
		email := contact.Properties["email"]
		if len(contact.Properties) == 0 || email == "" {
			// The email is the contact's identity; without it the event
			// cannot be cross-referenced and is not worth recording.
			continue
		}

		score, _ := strconv.Atoi(contact.Properties["hubspotscore"])
		name := strings.TrimSpace(contact.Properties["firstname"] + " " + contact.Properties["lastname"])

		userProperties := map[string]models.PropertyValue{
			"company_id":     models.StringProperty(companyAssociations[contact.ID]),
			"contact_name":   models.StringProperty(name),
			"contact_title":  models.StringProperty(contact.Properties["jobtitle"]),
			"contact_source": models.StringProperty(contact.Properties["hs_analytics_source"]),
			"contact_status": models.StringProperty(contact.Properties["hs_lead_status"]),
			"contact_score":  models.NumberProperty(float64(score)),
		}

		actionName, actionDate := "Contact Updated", contact.UpdatedAt
		if contact.CreatedAt.After(lastPulled) {
			actionName, actionDate = "Contact Created", contact.CreatedAt
		}

		event := &models.RawSyncEvent{
			ActionName:     actionName,
			ActionDate:     actionDate,
			UserProperties: FilterProperties(userProperties),
			Identity:       email,
		}
		if err := q.Push(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) emitCompanyEvents(ctx context.Context, account *models.HubspotAccount, page []hubspot.Object, lastPulled time.Time, q *Batcher) error {
	for _, company := range page {
		if len(company.Properties) == 0 {
			continue
		}

		companyProperties := map[string]models.PropertyValue{
			"company_id":       models.StringProperty(company.ID),
			"company_domain":   models.StringProperty(company.Properties["domain"]),
			"company_industry": models.StringProperty(company.Properties["industry"]),
		}

		actionName, actionDate := "Company Updated", company.UpdatedAt
		if lastPulled.IsZero() || company.CreatedAt.After(lastPulled) {
			actionName, actionDate = "Company Created", company.CreatedAt
		}

		event := &models.RawSyncEvent{
			ActionName: actionName,
			// Skewed 2s back so company events sort ahead of company-linked
			// contact events carrying the same modification time.
			ActionDate:        actionDate.Add(-2 * time.Second),
			CompanyProperties: FilterProperties(companyProperties),
		}
		if err := q.Push(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) emitMeetingEvents(ctx context.Context, account *models.HubspotAccount, page []hubspot.Object, lastPulled time.Time, q *Batcher) error {
	meetingToContact := w.resolveMeetingContacts(ctx, account, page)

	for _, meeting := range page {
		if len(meeting.Properties) == 0 {
			continue
		}

		meetingProperties := map[string]models.PropertyValue{
			"meeting_id":               models.StringProperty(meeting.ID),
			"meeting_timestamp":        models.StringProperty(meeting.Properties["hs_timestamp"]),
			"meeting_hubspot_owner_id": models.StringProperty(meeting.Properties["hubspot_owner_id"]),
			"meeting_title":            models.StringProperty(meeting.Properties["hs_meeting_title"]),
			"meeting_start_time":       models.StringProperty(meeting.Properties["hs_meeting_start_time"]),
			"meeting_end_time":         models.StringProperty(meeting.Properties["hs_meeting_end_time"]),
			"meeting_outcome":          models.StringProperty(meeting.Properties["hs_meeting_outcome"]),
		}

		actionName, actionDate := "Meeting Updated", meeting.UpdatedAt
		if lastPulled.IsZero() || meeting.CreatedAt.After(lastPulled) {
			actionName, actionDate = "Meeting Created", meeting.CreatedAt
		}

		event := &models.RawSyncEvent{
			ActionName:        actionName,
			ActionDate:        actionDate,
			MeetingProperties: FilterProperties(meetingProperties),
			Identity:          meetingToContact[meeting.ID],
		}
		if err := q.Push(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
