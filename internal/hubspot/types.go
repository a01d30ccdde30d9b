package hubspot

import "time"

type ObjectType string

const (
	ObjectCompanies ObjectType = "companies"
	ObjectContacts  ObjectType = "contacts"
	ObjectMeetings  ObjectType = "meetings"
)

type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type FilterGroup struct {
	Filters []Filter `json:"filters"`
}

type Sort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

// SearchRequest is the body of POST /crm/v3/objects/{type}/search.
type SearchRequest struct {
	FilterGroups []FilterGroup `json:"filterGroups"`
	Sorts        []Sort        `json:"sorts"`
	Properties   []string      `json:"properties"`
	Limit        int           `json:"limit"`
	After        string        `json:"after,omitempty"`
}

// Object is one CRM record. Properties come back as strings regardless of
// the declared property type; typing them is the caller's problem.
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type NextPage struct {
	After string `json:"after"`
	Link  string `json:"link,omitempty"`
}

type Paging struct {
	Next *NextPage `json:"next,omitempty"`
}

type SearchResponse struct {
	Total   int64    `json:"total"`
	Results []Object `json:"results"`
	Paging  *Paging  `json:"paging,omitempty"`
}

type AssociationObject struct {
	ID string `json:"id"`
}

// AssociationEdge is one entry of a batch association read: the source object
// and every object associated to it.
type AssociationEdge struct {
	From AssociationObject   `json:"from"`
	To   []AssociationObject `json:"to"`
}

type batchReadRequest struct {
	Inputs []AssociationObject `json:"inputs"`
}

type batchReadResponse struct {
	Results []AssociationEdge `json:"results"`
}

// AssociationResult is one entry of a per-object association listing.
type AssociationResult struct {
	ToObjectID string `json:"toObjectId"`
	Type       string `json:"type,omitempty"`
}

type listAssociationsResponse struct {
	Results []AssociationResult `json:"results"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
