package sample

import (
	"strings"
	"testing"

	"github.com/jmehdipour/group-load/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_GroupPassesValidation(t *testing.T) {
	g := NewGenerator(42)
	for _, grp := range g.Batch(20) {
		assert.True(t, strings.HasPrefix(grp.GroupID, "GRP_"))
		assert.NotEmpty(t, grp.Members)
		assert.LessOrEqual(t, len(grp.Members), 50)
		if grp.TerminationDate != nil {
			assert.Equal(t, "terminated", grp.Status)
		}

		raw, err := grp.ToMap()
		require.NoError(t, err)
		got, err := validate.Group(raw)
		require.NoError(t, err)
		assert.Equal(t, grp.GroupID, got.GroupID)
		assert.Len(t, got.Members, len(grp.Members))
	}
}

func TestGenerator_Corporate(t *testing.T) {
	g := NewGenerator(7)
	grp := g.Corporate("Tech Corp", 15)

	assert.True(t, strings.HasPrefix(grp.GroupID, "CORP_TECH_CORP_"))
	assert.Equal(t, "corporate", grp.GroupType)
	assert.Equal(t, "Tech Corp Employee Health Plan", grp.GroupName)
	require.Len(t, grp.Members, 15)
	assert.Equal(t, grp.GroupID+"_EMP0001", grp.Members[0].MemberID)
	assert.Equal(t, grp.GroupID+"_EMP0015", grp.Members[14].MemberID)
	assert.True(t, strings.HasSuffix(grp.Members[3].Email, "@techcorp.com"))
	assert.Equal(t, 15, grp.Metadata["company_size"])
	assert.Nil(t, grp.TerminationDate)
}

func TestGenerator_SameSeedSameIDs(t *testing.T) {
	a := NewGenerator(99).Batch(5)
	b := NewGenerator(99).Batch(5)
	for i := range a {
		assert.Equal(t, a[i].GroupID, b[i].GroupID)
		assert.Equal(t, a[i].GroupName, b[i].GroupName)
	}
}

func TestSampleGroups_Fresh(t *testing.T) {
	a := SampleGroups()
	a[0]["group_id"] = "changed"
	b := SampleGroups()
	assert.Equal(t, "GRP_12345", b[0]["group_id"])
}
