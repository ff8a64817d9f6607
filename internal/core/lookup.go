package core

// lookup.go resolves free-text entity names against a tenant snapshot.
//
// Matching is exact: case-insensitive and whitespace-trimmed, nothing more.
// A near miss ("Acme Inc" for "Acme") does not match, so the spreadsheet
// author fixes the source instead of the importer guessing. Two entities
// sharing a normalized name make the name ambiguous; the caller reports it.

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// KnownClientsLimit bounds the client names listed in a failure message.
var KnownClientsLimit = 10

var (
	errNotFound  = errors.New("not found")
	errAmbiguous = errors.New("ambiguous")
)

// Lookups is an immutable, tenant-filtered snapshot of clients, companies
// and channels. It is built once per batch and only read afterwards.
type Lookups struct {
	clients   map[string][]Client
	companies map[uuid.UUID]map[string][]Company
	channels  map[string][]Channel
	names     []string
}

// NewLookups indexes raw lookup data by normalized name.
func NewLookups(data LookupData) *Lookups {
	l := &Lookups{
		clients:   make(map[string][]Client, len(data.Clients)),
		companies: make(map[uuid.UUID]map[string][]Company),
		channels:  make(map[string][]Channel, len(data.Channels)*2),
	}

	for _, c := range data.Clients {
		key := entityKey(c.Name)
		if key == "" {
			continue
		}
		l.clients[key] = append(l.clients[key], c)
		l.names = append(l.names, strings.TrimSpace(c.Name))
	}
	sort.Strings(l.names)

	for _, co := range data.Companies {
		key := entityKey(co.Name)
		if key == "" {
			continue
		}
		byName, ok := l.companies[co.ClientID]
		if !ok {
			byName = make(map[string][]Company)
			l.companies[co.ClientID] = byName
		}
		byName[key] = append(byName[key], co)
	}

	for _, ch := range data.Channels {
		nameKey := entityKey(ch.Name)
		if nameKey != "" {
			l.channels[nameKey] = append(l.channels[nameKey], ch)
		}
		// A channel whose key equals its name is indexed once.
		if k := entityKey(ch.Key); k != "" && k != nameKey {
			l.channels[k] = append(l.channels[k], ch)
		}
	}

	return l
}

// ResolveClient finds the client whose display name equals name.
func (l *Lookups) ResolveClient(name string) (Client, error) {
	matches := l.clients[entityKey(name)]
	switch len(matches) {
	case 0:
		return Client{}, errNotFound
	case 1:
		return matches[0], nil
	default:
		return Client{}, errAmbiguous
	}
}

// ResolveCompany finds a company by name among the companies of one client.
func (l *Lookups) ResolveCompany(clientID uuid.UUID, name string) (Company, error) {
	matches := l.companies[clientID][entityKey(name)]
	switch len(matches) {
	case 0:
		return Company{}, errNotFound
	case 1:
		return matches[0], nil
	default:
		return Company{}, errAmbiguous
	}
}

// ResolveChannel finds a channel by display name or machine key.
func (l *Lookups) ResolveChannel(name string) (Channel, error) {
	matches := dedupeChannels(l.channels[entityKey(name)])
	switch len(matches) {
	case 0:
		return Channel{}, errNotFound
	case 1:
		return matches[0], nil
	default:
		return Channel{}, errAmbiguous
	}
}

// KnownClients returns up to limit client names, sorted, for diagnostics.
// The second result reports how many names were left out.
func (l *Lookups) KnownClients(limit int) ([]string, int) {
	if limit <= 0 || len(l.names) <= limit {
		return l.names, 0
	}
	return l.names[:limit], len(l.names) - limit
}

// ClientCount returns the number of clients in the snapshot.
func (l *Lookups) ClientCount() int {
	return len(l.names)
}

// entityKey is the comparison form of an entity name.
func entityKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// dedupeChannels drops repeated entries of the same channel.
func dedupeChannels(in []Channel) []Channel {
	if len(in) < 2 {
		return in
	}
	seen := make(map[uuid.UUID]bool, len(in))
	out := make([]Channel, 0, len(in))
	for _, ch := range in {
		if seen[ch.ID] {
			continue
		}
		seen[ch.ID] = true
		out = append(out, ch)
	}
	return out
}
