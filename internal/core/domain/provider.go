package domain

// Provider identifies an external data source a user can connect.
type Provider string

const (
	// ProviderNotion is the document workspace (pages with nested blocks).
	ProviderNotion Provider = "notion"

	// ProviderGmail is the email inbox.
	ProviderGmail Provider = "gmail"

	// ProviderHubSpot is the CRM contact list. It is queried directly by
	// the contacts tool and never indexed into the vector store.
	ProviderHubSpot Provider = "hubspot"
)

// SyncedProviders lists the providers that feed the vector index.
// HubSpot is excluded: contact lists are small and exact-match oriented,
// so the contacts tool calls the CRM API directly.
var SyncedProviders = []Provider{ProviderNotion, ProviderGmail}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderNotion, ProviderGmail, ProviderHubSpot:
		return true
	}
	return false
}

// Collection returns the vector store collection name for this provider.
// Empty for providers that are not indexed.
func (p Provider) Collection() string {
	switch p {
	case ProviderNotion:
		return "notion_pages"
	case ProviderGmail:
		return "gmail_messages"
	}
	return ""
}

// RecordIDField returns the payload field naming the source record in
// the provider's vector collection.
func (p Provider) RecordIDField() string {
	switch p {
	case ProviderNotion:
		return "page_id"
	case ProviderGmail:
		return "email_id"
	}
	return ""
}
