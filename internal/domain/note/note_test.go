package note

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/jbctechsolutions/mcpnotes/internal/domain/errors"
)

var created = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		title   string
		body    string
		wantErr error
	}{
		{"valid", "note_1.000000", "Buy milk", "2% milk", nil},
		{"title at max runes", "note_1.000000", strings.Repeat("é", MaxTitleLength), "b", nil},
		{"missing id", "", "t", "b", domainErrors.ErrNoteIDRequired},
		{"empty title", "note_1.000000", "", "b", domainErrors.ErrTitleRequired},
		{"title too long", "note_1.000000", strings.Repeat("a", MaxTitleLength+1), "b", domainErrors.ErrTitleTooLong},
		{"empty body", "note_1.000000", "t", "", domainErrors.ErrBodyRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.id, tt.title, tt.body, nil, created)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, domainErrors.CodeValidation, domainErrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, n.Title)
			assert.NotNil(t, n.Tags, "tags should default to empty, not nil")
			assert.Empty(t, n.Tags)
		})
	}
}

func TestNew_CopiesTags(t *testing.T) {
	tags := []string{"errands"}
	n, err := New("note_1.000000", "Buy milk", "2% milk", tags, created)
	require.NoError(t, err)

	tags[0] = "mutated"
	assert.Equal(t, []string{"errands"}, n.Tags)
}

func TestNote_Matches(t *testing.T) {
	n := &Note{Title: "Buy Milk", Body: "2% milk, 1 gallon"}

	assert.True(t, n.Matches("milk"))
	assert.True(t, n.Matches("MILK"))
	assert.True(t, n.Matches("gallon"))
	assert.False(t, n.Matches("bread"))
}

func TestNote_TagLabel(t *testing.T) {
	assert.Equal(t, "", (&Note{}).TagLabel())
	assert.Equal(t, "[errands, home]", (&Note{Tags: []string{"errands", "home"}}).TagLabel())
}

func TestNotFound(t *testing.T) {
	err := NotFound("note_42.000000")

	assert.ErrorIs(t, err, domainErrors.ErrNoteNotFound)
	assert.Equal(t, domainErrors.CodeNotFound, domainErrors.CodeOf(err))
	assert.Equal(t, "No note found with ID: note_42.000000", domainErrors.MessageOf(err))
}
