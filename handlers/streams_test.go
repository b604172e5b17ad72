package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentq/clients"
	"agentq/models"
	"agentq/models/api"
	"agentq/testutils"
)

func readStream(t *testing.T, url string) []testutils.SSERecord {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return testutils.ParseSSE(string(body))
}

func TestStreamEndpoint(t *testing.T) {
	t.Run("LiveSubscriberSeesChunksAndDone", func(t *testing.T) {
		responder := &clients.ScriptedResponder{
			Chunks:     []string{"The ", "answer ", "is 42."},
			ChunkDelay: 20 * time.Millisecond,
		}
		server, _ := newTestServer(t, responder)

		resp := postMessage(t, server, api.SubmitMessageRequest{Message: "what is the answer?"})
		submitted := decodeBody[api.SubmitMessageResponse](t, resp)

		records := readStream(t, server.URL+"/messages/"+submitted.MessageID+"/stream")

		// Possibly a waiting event first, then the chunks, then done.
		if records[0].Event == "waiting" {
			var waiting models.WaitingPayload
			require.NoError(t, json.Unmarshal([]byte(records[0].Data), &waiting))
			assert.Equal(t, "queued", waiting.State)
			assert.Equal(t, "Waiting in queue", waiting.Message)
			records = records[1:]
		}

		require.Len(t, records, 4)
		wantChunks := []string{"The ", "answer ", "is 42."}
		for i, want := range wantChunks {
			require.Equal(t, "chunk", records[i].Event)
			var chunk models.ChunkPayload
			require.NoError(t, json.Unmarshal([]byte(records[i].Data), &chunk))
			assert.Equal(t, "content", chunk.Type)
			assert.Equal(t, i, chunk.Index)
			assert.Equal(t, want, chunk.Chunk)
		}

		require.Equal(t, "done", records[3].Event)
		var done models.DonePayload
		require.NoError(t, json.Unmarshal([]byte(records[3].Data), &done))
		assert.Equal(t, "completed", done.State)
		assert.Equal(t, "The answer is 42.", done.Result)
		require.NotNil(t, done.CompletedAt)
	})

	t.Run("LateSubscriberReplaysEverything", func(t *testing.T) {
		responder := &clients.ScriptedResponder{Chunks: []string{"The ", "answer ", "is 42."}}
		server, queueEngine := newTestServer(t, responder)

		resp := postMessage(t, server, api.SubmitMessageRequest{Message: "what is the answer?"})
		submitted := decodeBody[api.SubmitMessageResponse](t, resp)
		testutils.WaitForState(t, queueEngine, submitted.MessageID, models.MessageStateCompleted)
		time.Sleep(50 * time.Millisecond)

		records := readStream(t, server.URL+"/messages/"+submitted.MessageID+"/stream")

		require.Len(t, records, 4)
		for i := 0; i < 3; i++ {
			assert.Equal(t, "chunk", records[i].Event)
		}
		assert.Equal(t, "done", records[3].Event)
	})

	t.Run("TimeoutStreamsSingleErrorEvent", func(t *testing.T) {
		responder := &clients.ScriptedResponder{
			Chunks:     []string{"never"},
			ChunkDelay: 5 * time.Second,
		}
		opts := testutils.DefaultEngineOptions()
		opts.ProcessingTimeout = 150 * time.Millisecond
		queueEngine := testutils.NewStartedEngine(t, responder, opts)
		server := httptest.NewServer(newTestRouter(queueEngine, 30*time.Second))
		defer server.Close()

		message, _, err := queueEngine.Submit(context.Background(), "sleepy", models.PriorityNormal, nil)
		require.NoError(t, err)

		records := readStream(t, server.URL+"/messages/"+message.ID+"/stream")

		var errorRecords []testutils.SSERecord
		for _, record := range records {
			if record.Event == "error" {
				errorRecords = append(errorRecords, record)
			}
		}
		require.Len(t, errorRecords, 1)
		var payload models.ErrorPayload
		require.NoError(t, json.Unmarshal([]byte(errorRecords[0].Data), &payload))
		assert.Equal(t, "failed", payload.State)
		assert.Equal(t, "processing timeout", payload.Error)
	})

	t.Run("CancelledMessageStreamsCancelledEvent", func(t *testing.T) {
		queueEngine := testutils.NewPausedEngine(t, &clients.ScriptedResponder{Chunks: []string{"ok"}}, testutils.DefaultEngineOptions())
		server := httptest.NewServer(newTestRouter(queueEngine, 30*time.Second))
		defer server.Close()

		message, _, err := queueEngine.Submit(context.Background(), "cancel me", models.PriorityNormal, nil)
		require.NoError(t, err)
		require.NoError(t, queueEngine.Cancel(context.Background(), message.ID))

		records := readStream(t, server.URL+"/messages/"+message.ID+"/stream")
		require.NotEmpty(t, records)
		last := records[len(records)-1]
		require.Equal(t, "cancelled", last.Event)
		var payload models.CancelledPayload
		require.NoError(t, json.Unmarshal([]byte(last.Data), &payload))
		assert.Equal(t, "cancelled", payload.State)
		assert.Equal(t, "Message was cancelled", payload.Message)
	})

	t.Run("UnknownMessage404s", func(t *testing.T) {
		server, _ := newTestServer(t, &clients.ScriptedResponder{Chunks: []string{"ok"}})
		resp, err := http.Get(server.URL + "/messages/msg_missing/stream")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("KeepaliveCommentsEmittedWhileIdle", func(t *testing.T) {
		responder := &clients.ScriptedResponder{
			Chunks:     []string{"eventually"},
			ChunkDelay: 300 * time.Millisecond,
		}
		queueEngine := testutils.NewStartedEngine(t, responder, testutils.DefaultEngineOptions())
		// Aggressive keepalive so the idle window produces comment lines.
		server := httptest.NewServer(newTestRouter(queueEngine, 50*time.Millisecond))
		defer server.Close()

		message, _, err := queueEngine.Submit(context.Background(), "slow burn", models.PriorityNormal, nil)
		require.NoError(t, err)

		resp, err := http.Get(server.URL + "/messages/" + message.ID + "/stream")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Contains(t, string(body), ": keepalive")
	})
}
