// Package objectstore_test tests the JetStream-backed object store.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/book-expert/podcast-service/internal/objectstore"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// startTestServer starts an in-memory NATS server with JetStream enabled.
func startTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func TestStoreUploadDownload(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := startTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, "podcast-audio-test")
	require.NoError(t, err)

	ctx := context.Background()
	uploadData := []byte("rendered episode bytes")

	err = store.Upload(ctx, "episode.mp3", uploadData)
	require.NoError(t, err)

	downloadData, err := store.Download(ctx, "episode.mp3")
	require.NoError(t, err)

	require.Equal(t, uploadData, downloadData)
}

func TestStoreBindsToExistingBucket(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := startTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	first, err := objectstore.New(jetstreamContext, "podcast-audio-shared")
	require.NoError(t, err)

	ctx := context.Background()

	err = first.Upload(ctx, "script.txt", []byte("A script."))
	require.NoError(t, err)

	// A second New against the same bucket must bind, not fail.
	second, err := objectstore.New(jetstreamContext, "podcast-audio-shared")
	require.NoError(t, err)

	data, err := second.Download(ctx, "script.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("A script."), data)
}

func TestStoreDownloadMissingObject(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := startTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, "podcast-audio-empty")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "no-such-key")
	require.Error(t, err)
}
