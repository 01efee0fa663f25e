package actor

import (
	"context"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdmin(firstName, fullName string) *core.Record {
	collection := core.NewAuthCollection("admins")
	collection.Fields.Add(
		&core.TextField{Name: "firstName"},
		&core.TextField{Name: "fullName"},
	)

	record := core.NewRecord(collection)
	record.Set("firstName", firstName)
	record.Set("fullName", fullName)
	return record
}

func TestNameOf(t *testing.T) {
	tests := []struct {
		name     string
		record   *core.Record
		expected string
	}{
		{"first name wins", newAdmin("Sam", "Samuel Mensah"), "Sam"},
		{"full name fallback", newAdmin("", "Samuel Mensah"), "Samuel Mensah"},
		{"blank names", newAdmin("  ", ""), DefaultName},
		{"nil record", nil, DefaultName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NameOf(tt.record))
		})
	}
}

func TestStatic(t *testing.T) {
	name, err := Static(" Ama ").ActorName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ama", name)

	_, err = Static("").ActorName(context.Background())
	assert.ErrorIs(t, err, ErrNoActor)
}

func TestFromContext(t *testing.T) {
	ctx := WithRecord(context.Background(), newAdmin("Kofi", ""))

	name, err := FromContext{}.ActorName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kofi", name)

	name, err = FromContext{Fallback: Static("console")}.ActorName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "console", name)

	_, err = FromContext{}.ActorName(context.Background())
	assert.ErrorIs(t, err, ErrNoActor)
}

func TestLookup_RequiresEmail(t *testing.T) {
	_, err := Lookup{}.ActorName(context.Background())
	assert.ErrorIs(t, err, ErrNoActor)
}
