// Package objectstore_test tests the NATS object store implementation.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/book-expert/dialogue-service/internal/objectstore"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startJetStream starts an in-memory NATS server and returns a JetStream context.
func startJetStream(t *testing.T) nats.JetStreamContext {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)
	t.Cleanup(natsServer.Shutdown)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	return jetstreamContext
}

func TestStore_UploadDownload(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(startJetStream(t), "chapters")
	require.NoError(t, err)
	assert.Equal(t, "chapters", store.Bucket())

	ctx := context.Background()
	content := []byte("小明：“你好”")

	require.NoError(t, store.Upload(ctx, "novel-1/chapter-1.txt", content))

	downloaded, err := store.Download(ctx, "novel-1/chapter-1.txt")
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)
}

func TestStore_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(startJetStream(t), "dialogues")
	require.NoError(t, err)

	type document struct {
		Chapter int      `json:"chapter"`
		Lines   []string `json:"lines"`
	}

	ctx := context.Background()
	require.NoError(t, store.UploadJSON(ctx, "doc.json", document{Chapter: 2, Lines: []string{"你好"}}))

	var got document
	require.NoError(t, store.DownloadJSON(ctx, "doc.json", &got))
	assert.Equal(t, document{Chapter: 2, Lines: []string{"你好"}}, got)
}

func TestStore_BindsToExistingBucket(t *testing.T) {
	t.Parallel()

	jetstreamContext := startJetStream(t)
	ctx := context.Background()

	first, err := objectstore.New(jetstreamContext, "voices")
	require.NoError(t, err)
	require.NoError(t, first.Upload(ctx, "a.wav", []byte("audio")))

	second, err := objectstore.New(jetstreamContext, "voices")
	require.NoError(t, err)

	data, err := second.Download(ctx, "a.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), data)
}

func TestStore_DeleteAndMissingKeys(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(startJetStream(t), "scratch")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "tmp", []byte("x")))
	require.NoError(t, store.Delete(ctx, "tmp"))

	_, err = store.Download(ctx, "tmp")
	require.Error(t, err)

	require.ErrorIs(t, store.Upload(ctx, "", nil), objectstore.ErrEmptyKey)

	_, err = store.Download(ctx, "")
	require.ErrorIs(t, err, objectstore.ErrEmptyKey)
}
