package fastpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID_AcceptsBareHexAndDashedForms(t *testing.T) {
	got, ok := normalizeID("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	assert.True(t, ok)
	assert.Equal(t, "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", got)

	got, ok = normalizeID("AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA")
	assert.True(t, ok)
	assert.Equal(t, "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", got)
}

func TestNormalizeID_RejectsNonBareForms(t *testing.T) {
	_, ok := normalizeID("urn:uuid:aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	assert.False(t, ok, "urn:uuid: prefix must be rejected even though uuid.Parse accepts it")

	_, ok = normalizeID("{aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa}")
	assert.False(t, ok, "brace-wrapped form must be rejected even though uuid.Parse accepts it")

	_, ok = normalizeID("not-a-uuid")
	assert.False(t, ok)

	_, ok = normalizeID("")
	assert.False(t, ok)
}
