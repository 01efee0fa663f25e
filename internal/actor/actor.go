// Package actor resolves the admin name recorded on check-ins and
// payment reviews.
package actor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// DefaultName is used when an admin record carries no usable name.
const DefaultName = "admin"

// ErrNoActor means no admin identity is available for a mutation.
var ErrNoActor = errors.New("actor: no signed-in admin")

// Provider supplies the identity of whoever triggers a mutation.
type Provider interface {
	ActorName(ctx context.Context) (string, error)
}

// Static always returns the same name. The terminal dashboard uses it
// with the --admin flag.
type Static string

func (s Static) ActorName(context.Context) (string, error) {
	name := strings.TrimSpace(string(s))
	if name == "" {
		return "", ErrNoActor
	}
	return name, nil
}

// NameOf picks the display name of an admins record: firstName, then
// fullName, then DefaultName.
func NameOf(record *core.Record) string {
	if record == nil {
		return DefaultName
	}
	for _, field := range []string{"firstName", "fullName"} {
		if v := strings.TrimSpace(record.GetString(field)); v != "" {
			return v
		}
	}
	return DefaultName
}

type recordKey struct{}

// WithRecord attaches the authenticated admin record to ctx.
func WithRecord(ctx context.Context, record *core.Record) context.Context {
	return context.WithValue(ctx, recordKey{}, record)
}

// RecordFrom returns the admin record attached by WithRecord.
func RecordFrom(ctx context.Context) (*core.Record, bool) {
	record, ok := ctx.Value(recordKey{}).(*core.Record)
	return record, ok && record != nil
}

// FromContext reads the admin attached to the request context and falls
// back to Fallback when there is none.
type FromContext struct {
	Fallback Provider
}

func (p FromContext) ActorName(ctx context.Context) (string, error) {
	if record, ok := RecordFrom(ctx); ok {
		return NameOf(record), nil
	}
	if p.Fallback != nil {
		return p.Fallback.ActorName(ctx)
	}
	return "", ErrNoActor
}

// Lookup resolves the name of an admin by email from the admins
// collection. It backs the terminal dashboard's --as flag.
type Lookup struct {
	App   core.App
	Email string
}

func (l Lookup) ActorName(ctx context.Context) (string, error) {
	if l.App == nil || strings.TrimSpace(l.Email) == "" {
		return "", ErrNoActor
	}
	record, err := l.App.FindFirstRecordByFilter(
		"admins",
		"email = {:email}",
		dbx.Params{"email": strings.TrimSpace(l.Email)},
	)
	if err != nil {
		return "", fmt.Errorf("actor: find admin %q: %w", l.Email, err)
	}
	return NameOf(record), nil
}
