package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestRenderEveryType(t *testing.T) {
	r := NewRenderer(language.English)
	data := map[string]string{"from_username": "alice", "to_username": "bob"}

	for _, nt := range Types {
		title, body := r.Render(nt, data)
		assert.NotEqual(t, genericTitle, title, nt)
		assert.NotEmpty(t, body, nt)
		assert.NotContains(t, body, "%!", nt)
	}
}

func TestRenderOtherConnect(t *testing.T) {
	r := NewRenderer(language.English)
	title, body := r.Render(FriendsOtherConnect, map[string]string{"from_username": "alice", "to_username": "bob"})
	assert.Equal(t, "New connection", title)
	assert.Equal(t, "alice and bob are now friends.", body)
}

func TestRenderPortuguese(t *testing.T) {
	r := NewRenderer(language.BrazilianPortuguese)
	_, body := r.Render(FriendsAccept, map[string]string{"to_username": "bob"})
	assert.Equal(t, "bob aceitou seu pedido de amizade.", body)
}

func TestRenderMissingDataAndUnknownType(t *testing.T) {
	r := NewRenderer(language.English)
	_, body := r.Render(FriendsInvite, nil)
	assert.Equal(t, "someone has requested to add you as a friend.", body)

	title, body := r.Render("something_else", nil)
	assert.Equal(t, genericTitle, title)
	assert.Equal(t, genericBody, body)
}

func TestBuildCatalogCoversEveryLocale(t *testing.T) {
	_, err := buildCatalog(locales)
	require.NoError(t, err)

	for tag, texts := range locales {
		for _, nt := range Types {
			_, ok := texts[nt]
			assert.True(t, ok, "%s missing %s", tag, nt)
		}
	}

	assert.Panics(t, func() { mustCatalog(nil, errors.New("bad entry")) })
}
