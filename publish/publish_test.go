package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo_article_studio/model"
)

func finalizedDraft() model.Draft {
	brief := model.NewBrief("go generics")
	return model.Draft{
		ID:      brief.ID,
		Brief:   brief,
		Outline: &model.ContentOutline{Title: "Go Generics in Practice"},
		Body:    "# Go Generics in Practice\n\nbody",
		Images: []model.ArticleImage{
			{ID: "i1", URL: "data:image/png;base64,eA==", IsHero: true},
		},
		State: model.StateFinalized,
	}
}

func TestPublishPostsPayload(t *testing.T) {
	var got publishPayload
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "42", "url": "https://cms.example/p/42"})
	}))
	defer ts.Close()

	conn, err := NewREST(Descriptor{Platform: "wordpress", BaseURL: ts.URL, Credential: "tok"}, nil, zerolog.Nop())
	require.NoError(t, err)

	url, err := conn.Publish(context.Background(), finalizedDraft(), "<h1>html</h1>")
	require.NoError(t, err)

	assert.Equal(t, "https://cms.example/p/42", url)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "Go Generics in Practice", got.Title)
	assert.Equal(t, "<h1>html</h1>", got.HTML)
	assert.Equal(t, "data:image/png;base64,eA==", got.HeroImage)
	assert.Equal(t, []string{"go generics"}, got.Keywords)
}

func TestPublishErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "quota exceeded"})
	}))
	defer ts.Close()

	conn, err := NewREST(Descriptor{Platform: "ghost", BaseURL: ts.URL}, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = conn.Publish(context.Background(), finalizedDraft(), "<p>x</p>")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestPublishHTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	conn, err := NewREST(Descriptor{Platform: "ghost", BaseURL: ts.URL}, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = conn.Publish(context.Background(), finalizedDraft(), "<p>x</p>")
	assert.ErrorContains(t, err, "status 403")
}

func TestNewRESTRequiresBaseURL(t *testing.T) {
	_, err := NewREST(Descriptor{Platform: "ghost"}, nil, zerolog.Nop())
	assert.Error(t, err)
}
