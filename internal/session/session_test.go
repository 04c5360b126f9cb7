package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/rag"
)

func loadedState(t *testing.T, videoID, text string) State {
	t.Helper()
	chunks, err := rag.ChunkTranscript(text, 1000, 100)
	require.NoError(t, err)
	for i := range chunks {
		chunks[i].Vector = []float32{1, float32(i)}
	}
	index, err := rag.BuildFlatIndex(chunks)
	require.NoError(t, err)
	return State{Corpus: rag.Corpus{
		Transcript: &model.Transcript{VideoID: videoID, Text: text, LoadedAt: time.Now()},
		Chunks:     chunks,
		Index:      index,
	}}
}

func TestSessionUpdateCommitsOnSuccess(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create()

	view := sess.View()
	require.NotNil(t, view)
	assert.False(t, view.Loaded)
	assert.Equal(t, sess.ID, view.SessionID)

	err := sess.Update(func(State) (State, error) {
		return loadedState(t, "vid", "hello world"), nil
	})
	require.NoError(t, err)

	view = sess.View()
	assert.True(t, view.Loaded)
	assert.Equal(t, "vid", view.VideoID)
	assert.Equal(t, 11, view.TranscriptLength)
	assert.Equal(t, 1, view.ChunkCount)
}

func TestSessionUpdateFailureLeavesStateUnchanged(t *testing.T) {
	sess := NewStore(time.Hour).Create()
	require.NoError(t, sess.Update(func(State) (State, error) {
		return loadedState(t, "first", "first transcript"), nil
	}))

	err := sess.Update(func(cur State) (State, error) {
		cur.History = append(cur.History, model.ChatTurn{Role: model.RoleUser, Text: "lost"})
		return State{}, errors.New("generator down")
	})
	require.Error(t, err)

	sess.Read(func(cur State) {
		assert.Equal(t, "first", cur.Transcript.VideoID)
		assert.Empty(t, cur.History)
	})
	assert.Empty(t, sess.View().History)
}

func TestSessionUpdateReleasesLockOnPanic(t *testing.T) {
	sess := NewStore(time.Hour).Create()
	assert.Panics(t, func() {
		_ = sess.Update(func(State) (State, error) { panic("boom") })
	})

	done := make(chan struct{})
	go func() {
		_ = sess.Update(func(cur State) (State, error) { return cur, nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not released after panic")
	}
}

func TestSessionViewDoesNotWaitForLock(t *testing.T) {
	sess := NewStore(time.Hour).Create()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = sess.Update(func(cur State) (State, error) {
			close(entered)
			<-release
			return cur, nil
		})
	}()
	<-entered

	got := make(chan *View)
	go func() { got <- sess.View() }()
	select {
	case v := <-got:
		assert.False(t, v.Loaded)
	case <-time.After(time.Second):
		t.Fatal("View blocked on the operation lock")
	}
	close(release)
}

func TestSessionUpdatesAreSerialized(t *testing.T) {
	sess := NewStore(time.Hour).Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Update(func(cur State) (State, error) {
				history := append([]model.ChatTurn(nil), cur.History...)
				cur.History = append(history, model.ChatTurn{Role: model.RoleUser, Text: "q"})
				return cur, nil
			})
		}()
	}
	wg.Wait()
	assert.Len(t, sess.View().History, 50)
}

func TestViewHistoryIsACopy(t *testing.T) {
	sess := NewStore(time.Hour).Create()
	require.NoError(t, sess.Update(func(cur State) (State, error) {
		cur.History = []model.ChatTurn{{Role: model.RoleUser, Text: "original"}}
		return cur, nil
	}))

	v := sess.View()
	v.History[0].Text = "mutated"
	sess.Read(func(cur State) {
		assert.Equal(t, "original", cur.History[0].Text)
	})
}
