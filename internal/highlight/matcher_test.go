package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidSpecs(t *testing.T) {
	m, err := New("/deploy/i", "/^err/m", "/a\\/b/")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
}

func TestNew_RejectsFirstBadSpec(t *testing.T) {
	m, err := New("/ok/", "no-slashes")
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrBadKeyword)
}

func TestAddKeyword_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{"plain", "/deploy/", false},
		{"ignore case flag", "/deploy/i", false},
		{"all flags", "/deploy/gimuy", false},
		{"slash inside pattern", "/a/b/i", false},
		{"missing slashes", "deploy", true},
		{"empty pattern", "//", true},
		{"unknown flag", "/deploy/z", true},
		{"unclosed group", "/(/", true},
		{"empty string", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Matcher{}
			err := m.AddKeyword(tt.spec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadKeyword)
				assert.Equal(t, 0, m.Len())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1, m.Len())
			}
		})
	}
}

func TestAddKeyword_DuplicateIsNoop(t *testing.T) {
	m := &Matcher{}
	require.NoError(t, m.AddKeyword("/deploy/i"))
	require.NoError(t, m.AddKeyword("/deploy/i"))
	assert.Equal(t, 1, m.Len())
}

func TestMatchesAny(t *testing.T) {
	m, err := New("/deploy/i", "/urgent/")
	require.NoError(t, err)

	assert.True(t, m.MatchesAny("Deploying to prod now"))
	assert.True(t, m.MatchesAny("this is urgent"))
	assert.False(t, m.MatchesAny("nothing to see"))
	assert.False(t, m.MatchesAny(""))
}

func TestMatchesAny_EmptySet(t *testing.T) {
	m := &Matcher{}
	assert.False(t, m.MatchesAny("anything"))
}

func TestMatchesAny_MultilineFlag(t *testing.T) {
	m, err := New("/^error/m")
	require.NoError(t, err)

	assert.True(t, m.MatchesAny("ok\nerror: disk full"))
	assert.False(t, m.MatchesAny("no match here"))
}

func TestMatchesAny_CaseSensitivityWithoutFlag(t *testing.T) {
	m, err := New("/Deploy/")
	require.NoError(t, err)

	assert.True(t, m.MatchesAny("Deploy now"))
	assert.False(t, m.MatchesAny("deploy now"))
}

func TestRemoveKeyword(t *testing.T) {
	m, err := New("/a/", "/b/")
	require.NoError(t, err)

	assert.True(t, m.RemoveKeyword("/a/"))
	assert.False(t, m.RemoveKeyword("/a/"))
	assert.Equal(t, []string{"/b/"}, m.Keywords())
	assert.False(t, m.MatchesAny("a"))
	assert.True(t, m.MatchesAny("b"))
}

func TestSetKeywords_Atomic(t *testing.T) {
	m, err := New("/old/")
	require.NoError(t, err)

	err = m.SetKeywords([]string{"/new/", "broken"})
	assert.ErrorIs(t, err, ErrBadKeyword)
	assert.Equal(t, []string{"/old/"}, m.Keywords())

	require.NoError(t, m.SetKeywords([]string{"/new1/", "/new2/"}))
	assert.Equal(t, []string{"/new1/", "/new2/"}, m.Keywords())
}

func TestKeywords_ReturnsCopy(t *testing.T) {
	m, err := New("/a/", "/b/")
	require.NoError(t, err)

	specs := m.Keywords()
	specs[0] = "/mutated/"
	assert.Equal(t, []string{"/a/", "/b/"}, m.Keywords())
}
