package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain is a tenant: one customer with one or more connected HubSpot
// accounts. The whole document is loaded once per sync run and saved after
// every meaningful state change.
type Domain struct {
	ID        uuid.UUID         `json:"id"`
	APIKey    string            `json:"api_key"`
	Accounts  []*HubspotAccount `json:"accounts"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// HubspotAccount holds one connected portal's credentials and per-object-type
// sync checkpoints. TokenExpiresAt lives on the account, not in a package
// global, so two accounts never share expiration state.
type HubspotAccount struct {
	ID             uuid.UUID       `json:"id"`
	DomainID       uuid.UUID       `json:"domain_id"`
	HubID          string          `json:"hub_id"`
	AccessToken    string          `json:"-"`
	RefreshToken   string          `json:"-"`
	TokenExpiresAt time.Time       `json:"token_expires_at"`
	LastPulled     LastPulledDates `json:"last_pulled"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LastPulledDates are the per-object-type checkpoints. A zero time means the
// type has never been synced and every record counts as newly created.
type LastPulledDates struct {
	Companies time.Time `json:"companies"`
	Contacts  time.Time `json:"contacts"`
	Meetings  time.Time `json:"meetings"`
}

// AccountByHubID returns the account connected to the given portal, or nil.
func (d *Domain) AccountByHubID(hubID string) *HubspotAccount {
	for _, account := range d.Accounts {
		if account.HubID == hubID {
			return account
		}
	}
	return nil
}
