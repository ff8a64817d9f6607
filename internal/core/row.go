package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// rowContext carries the per-batch values every row needs.
type rowContext struct {
	tenantID uuid.UUID
	actorID  uuid.UUID
	lookups  *Lookups
}

// processRow resolves one row into a post and inserts it.
// It never returns an error: every problem becomes part of the outcome.
func (s *Service) processRow(ctx context.Context, rc rowContext, row ParsedRow) RowOutcome {
	out := RowOutcome{Row: row.Number}
	fail := func(format string, args ...any) RowOutcome {
		out.Message = fmt.Sprintf("Row %d: ", row.Number) + fmt.Sprintf(format, args...)
		out.Warnings = nil
		return out
	}
	warn := func(f Field, value, format string, args ...any) {
		out.Warnings = append(out.Warnings, RowWarning{
			Field:   f,
			Value:   value,
			Message: fmt.Sprintf(format, args...),
		})
	}

	clientName := row.lookupText(s.aliases.For(FieldClient))
	if clientName == "" {
		return fail("required column missing: %s", s.aliases.Label(FieldClient))
	}

	client, err := rc.lookups.ResolveClient(clientName)
	switch {
	case errors.Is(err, errAmbiguous):
		return fail("client %q matches more than one client; rename one of them", clientName)
	case err != nil:
		return fail("client %q not found. Known clients: %s", clientName, s.knownClients(rc.lookups))
	}

	rec := CandidateRecord{
		TenantID:  rc.tenantID,
		ClientID:  client.ID,
		CreatedBy: rc.actorID,
	}

	if name := row.lookupText(s.aliases.For(FieldCompany)); name != "" {
		company, err := rc.lookups.ResolveCompany(client.ID, name)
		switch {
		case errors.Is(err, errAmbiguous):
			warn(FieldCompany, name, "company %q is ambiguous for client %q", name, client.Name)
		case err != nil:
			warn(FieldCompany, name, "company %q not found for client %q", name, client.Name)
		default:
			rec.CompanyID = ToPgUUID(company.ID)
		}
	}

	if name := row.lookupText(s.aliases.For(FieldChannel)); name != "" {
		channel, err := rc.lookups.ResolveChannel(name)
		switch {
		case errors.Is(err, errAmbiguous):
			warn(FieldChannel, name, "channel %q is ambiguous", name)
		case err != nil:
			warn(FieldChannel, name, "channel %q not found", name)
		default:
			rec.ChannelID = ToPgUUID(channel.ID)
		}
	}

	rawDate, _ := row.Lookup(s.aliases.For(FieldDate))
	publishAt, ok := s.dates.Coerce(rawDate)
	if !ok {
		if rawDate.IsBlank() {
			warn(FieldDate, "", "no date; post left unscheduled")
		} else {
			warn(FieldDate, rawDate.String(), "unrecognized date %q; post left unscheduled", rawDate.String())
		}
	}
	rec.PublishAt = ToPgTimestamptz(publishAt, ok)

	if raw := row.lookupText(s.aliases.For(FieldMediaType)); raw != "" {
		if media, ok := NormalizeMediaType(raw); ok {
			rec.MediaType = ToPgText(string(media))
		} else {
			warn(FieldMediaType, raw, "unknown media type %q", raw)
		}
	}

	rec.Responsibility = NormalizeResponsibility(row.lookupText(s.aliases.For(FieldResponsibility)))
	rec.Title = ToPgText(row.lookupText(s.aliases.For(FieldTitle)))
	rec.Content = ToPgText(row.lookupText(s.aliases.For(FieldContent)))
	rec.Theme = ToPgText(row.lookupText(s.aliases.For(FieldTheme)))
	rec.Insights = ToPgText(row.lookupText(s.aliases.For(FieldInsights)))

	id, err := s.store.InsertPost(ctx, rec)
	if err != nil {
		return fail("could not save post: %v", err)
	}
	out.PostID = id
	return out
}

// knownClients formats the bounded list of client names for a failure message.
func (s *Service) knownClients(l *Lookups) string {
	names, more := l.KnownClients(s.knownClientsLimit)
	if len(names) == 0 {
		return "(none)"
	}
	list := strings.Join(names, ", ")
	if more > 0 {
		list += fmt.Sprintf(" (and %d more)", more)
	}
	return list
}
