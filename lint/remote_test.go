package lint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sivrad/matrix-tools/pkg/robusthttp"
	"github.com/sivrad/matrix-tools/schema"
)

const testTypeSchema = `{
    "type": "object",
    "required": ["name"],
    "properties": {
        "name": {"type": "string"},
        "isAbstract": {"type": "boolean"}
    }
}`

func schemaServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/type.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testTypeSchema))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *http.Client {
	return robusthttp.NewClient(robusthttp.WithMaxRetries(0), robusthttp.WithTimeout(5*time.Second))
}

func decode(t *testing.T, body string) *schema.Object {
	doc, err := schema.DecodeDocument("doc.json", []byte(body))
	require.NoError(t, err)
	return doc
}

func TestRemoteValidator(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var hits atomic.Int32
	srv := schemaServer(t, &hits)
	rv := NewRemoteValidator(testClient(), "")
	rv.URLs[KindType] = srv.URL + "/type.json"

	res, err := rv.Validate(ctx, decode(t, `{"name": "dog", "isAbstract": false}`), KindType)
	require.NoError(t, err)
	assert.True(res.OK)
	assert.Empty(res.Violations)

	res, err = rv.Validate(ctx, decode(t, `{"label": "Dog", "isAbstract": "no"}`), KindType)
	require.NoError(t, err)
	assert.False(res.OK)
	assert.NotEmpty(res.Violations)

	// compiled schema is reused
	assert.Equal(int32(1), hits.Load())
}

func TestRemoteValidatorDiskCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	cacheDir := t.TempDir()

	var hits atomic.Int32
	srv := schemaServer(t, &hits)
	u := srv.URL + "/type.json"

	rv := NewRemoteValidator(testClient(), cacheDir)
	rv.URLs[KindType] = u
	_, err := rv.Validate(ctx, decode(t, `{"name": "dog"}`), KindType)
	require.NoError(t, err)
	srv.Close()

	fresh := NewRemoteValidator(testClient(), cacheDir)
	fresh.URLs[KindType] = u
	res, err := fresh.Validate(ctx, decode(t, `{"name": "dog"}`), KindType)
	require.NoError(t, err)
	assert.True(res.OK)
	assert.Equal(int32(1), hits.Load())
}

func TestRemoteValidatorMissingSchema(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32
	srv := schemaServer(t, &hits)
	rv := NewRemoteValidator(testClient(), "")
	rv.URLs[KindCollection] = srv.URL + "/collection.json"

	_, err := rv.Validate(ctx, decode(t, `{"id": "zoo"}`), KindCollection)
	assert.Error(t, err)

	delete(rv.URLs, KindType)
	_, err = rv.Validate(ctx, decode(t, `{"name": "dog"}`), KindType)
	assert.Error(t, err)
}

func TestRemoteValidatorSchemaTooLarge(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32
	srv := schemaServer(t, &hits)
	rv := NewRemoteValidator(testClient(), "")
	rv.URLs[KindType] = srv.URL + "/type.json"
	rv.MaxSchemaSize = int64(len(testTypeSchema)) - 1

	_, err := rv.Validate(ctx, decode(t, `{"name": "dog"}`), KindType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema too large")

	exact := NewRemoteValidator(testClient(), "")
	exact.URLs[KindType] = srv.URL + "/type.json"
	exact.MaxSchemaSize = int64(len(testTypeSchema))
	res, err := exact.Validate(ctx, decode(t, `{"name": "dog"}`), KindType)
	require.NoError(t, err)
	assert.True(t, res.OK)
}
