package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureRegistryGetKnownAndUnknown(t *testing.T) {
	r := newFeatureRegistry("dbgpd", "1.0")

	v, ok := r.Get("language_name")
	require.True(t, ok)
	assert.Equal(t, "dbgpd", v)

	_, ok = r.Get("not_a_feature")
	assert.False(t, ok)
}

func TestFeatureRegistrySetRoundTrip(t *testing.T) {
	r := newFeatureRegistry("dbgpd", "1.0")

	require.NoError(t, r.Set("max_children", "128"))
	assert.Equal(t, 128, r.Int("max_children"))

	require.NoError(t, r.Set("show_hidden", "1"))
	assert.True(t, r.Bool("show_hidden"))
}

func TestFeatureRegistrySetReadOnlyIsError(t *testing.T) {
	r := newFeatureRegistry("dbgpd", "1.0")
	err := r.Set("language_name", "somethingelse")
	require.Error(t, err)

	v, _ := r.Get("language_name")
	assert.Equal(t, "dbgpd", v, "read-only feature must not change after a rejected set")
}

func TestFeatureRegistrySetUnknownIsError(t *testing.T) {
	r := newFeatureRegistry("dbgpd", "1.0")
	err := r.Set("not_a_feature", "1")
	require.Error(t, err)
}

func TestFeatureRegistrySetMalformedBoolIsError(t *testing.T) {
	r := newFeatureRegistry("dbgpd", "1.0")
	err := r.Set("show_hidden", "yes")
	require.Error(t, err)
}
