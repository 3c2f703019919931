package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
)

func TestLinkedRefRoundTrip(t *testing.T) {
	ref := LinkedRef{Kind: enums.EntityKindInvoice, ID: uuid.New()}
	require.NoError(t, ref.Validate())

	parsed, err := ParseLinkedRef(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)
}

func TestLinkedRefValidate(t *testing.T) {
	bad := LinkedRef{Kind: "sausage", ID: uuid.New()}
	assert.Error(t, bad.Validate())

	missing := LinkedRef{Kind: enums.EntityKindVendor}
	assert.Error(t, missing.Validate())
}

func TestParseLinkedRefRejectsGarbage(t *testing.T) {
	_, err := ParseLinkedRef("not-a-ref")
	assert.Error(t, err)

	_, err = ParseLinkedRef("vendor:not-a-uuid")
	assert.Error(t, err)

	_, err = ParseLinkedRef("sausage:" + uuid.NewString())
	assert.Error(t, err)
}
