package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_DecodeLayouts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 zulu", `"2024-03-01T10:20:30Z"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"offset", `"2024-03-01T10:20:30+02:00"`, time.Date(2024, 3, 1, 8, 20, 30, 0, time.UTC)},
		{"fractional no zone", `"2024-03-01T10:20:30.1234567"`, time.Date(2024, 3, 1, 10, 20, 30, 123456700, time.Local)},
		{"no zone", `"2024-03-01T10:20:30"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

// Not parallel: it swaps time.Local.
func TestTimestamp_ZonelessIsLocalTime(t *testing.T) {
	saved := time.Local
	time.Local = time.FixedZone("EST", -5*60*60)
	t.Cleanup(func() { time.Local = saved })

	assert.Equal(t, "2024-01-02 10:00", ParseTimestamp("2024-01-02T10:00:00").Display())
	assert.Equal(t, "2024-01-02 10:00", ParseTimestamp("2024-01-02 10:00:00").Display())
	assert.Equal(t, "2024-01-02 05:00", ParseTimestamp("2024-01-02T10:00:00Z").Display())
}

func TestTimestamp_UnparseableKeepsRaw(t *testing.T) {
	t.Parallel()
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.True(t, ts.IsZero())
	assert.Equal(t, "yesterday", ts.Display())
	assert.Equal(t, "yesterday", ts.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.Equal(t, "", ts.Display())
}

func TestPost_JSONShape(t *testing.T) {
	t.Parallel()
	raw := `{"id":7,"title":"Hello","author":"Ana","authorId":"u-1","content":"Body",` +
		`"createdDate":"2024-01-01T00:00:00Z","lastModifiedDate":"2024-01-02T00:00:00Z"}`
	var p Post
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "u-1", p.AuthorID)
	assert.True(t, p.TimestampsOrdered())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"lastModifiedDate":"2024-01-02T00:00:00Z"`)
}

func TestPost_TimestampsOrdered(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := Post{CreatedDate: NewTimestamp(now), LastModifiedDate: NewTimestamp(now.Add(-time.Minute))}
	assert.False(t, p.TimestampsOrdered())
	assert.True(t, Post{}.TimestampsOrdered())
}

func TestPost_WithEdits(t *testing.T) {
	t.Parallel()
	orig := Post{ID: 3, Title: "Old", Content: "old", AuthorID: "u"}
	edited := orig.WithEdits("New", "new")
	assert.Equal(t, "Old", orig.Title)
	assert.Equal(t, Post{ID: 3, Title: "New", Content: "new", AuthorID: "u"}, edited)
}

func TestParsePostID(t *testing.T) {
	t.Parallel()
	id, err := ParsePostID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := ParsePostID(bad)
		assert.True(t, IsValidation(err), "input %q", bad)
	}
}

func TestIdentity_Normalize(t *testing.T) {
	t.Parallel()
	id := &Identity{ID: "1", UserName: "ana", Roles: []string{"Admin", "User"}}
	n := id.Normalize()
	assert.Equal(t, []string{"Admin"}, n.Roles)
	assert.Equal(t, "ana", n.Name())

	bare := (&Identity{ID: "2", UserName: "bob"}).Normalize()
	assert.Equal(t, []string{RoleUser}, bare.Roles)

	var none *Identity
	assert.Nil(t, none.Normalize())
	assert.False(t, none.HasRole(RoleAdmin))
}

func TestUserAccount_Normalize(t *testing.T) {
	t.Parallel()
	u := UserAccount{ID: "1", Username: "ana"}.Normalize()
	assert.Equal(t, "ana", u.DisplayName)
	assert.Equal(t, RoleUser, u.Role)
}
