package stopwords

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Language(t *testing.T) {
	r := Default()

	tests := []struct {
		country string
		want    string
	}{
		{"us", "en"},
		{"GB", "en"},
		{"tr", "tr"},
		{"at", "de"},
		{"ch", "de"},
		{"mx", "es"},
		{"ca", "en"},
		{"be", "nl"},
		{"lu", "fr"},
		{"br", "pt"},
		{"jp", "en"}, // mapped to ja, which has no list
		{"zz", "en"}, // unmapped
		{"", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Language(tt.country))
		})
	}
}

func TestDefault_ForCountry(t *testing.T) {
	r := Default()

	en := r.ForCountry("us")
	assert.True(t, en.Contains("the"))
	assert.True(t, en.Contains("game"))
	assert.False(t, en.Contains("puzzle"))

	de := r.ForCountry("de")
	assert.True(t, de.Contains("und"))
	assert.False(t, de.Contains("the"))
}

func TestLoad_Override(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "languages.json"), []byte(`{"en":["foo"],"nl":["de","het"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "countries.json"), []byte(`{"BE":"NL"}`), 0o644))

	r, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "nl", r.Language("be"))
	assert.True(t, r.ForCountry("be").Contains("het"))
	assert.True(t, r.ForCountry("us").Contains("foo"))
}

func TestLoad_RequiresEnglish(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "languages.json"), []byte(`{"de":["und"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "countries.json"), []byte(`{}`), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
