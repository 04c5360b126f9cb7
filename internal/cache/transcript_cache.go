package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"gopherai-ytchat/internal/metrics"
)

const keyPrefix = "ytchat"

type cachedTranscript struct {
	VideoID   string    `json:"video_id"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// TranscriptCache keeps fetched caption text per video id so repeated
// loads of the same video skip the network.
type TranscriptCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTranscriptCache(client *redisv9.Client, ttl time.Duration) *TranscriptCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TranscriptCache{client: client, ttl: ttl}
}

func (c *TranscriptCache) Get(ctx context.Context, videoID string) (string, bool, error) {
	raw, err := c.client.Get(ctx, transcriptKey(videoID)).Result()
	if errors.Is(err, redisv9.Nil) {
		metrics.CacheHit("transcript", false)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get transcript failed: %w", err)
	}

	var entry cachedTranscript
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return "", false, fmt.Errorf("unmarshal cached transcript failed: %w", err)
	}
	metrics.CacheHit("transcript", true)
	return entry.Text, true, nil
}

func (c *TranscriptCache) Set(ctx context.Context, videoID, text string) error {
	payload, err := json.Marshal(cachedTranscript{VideoID: videoID, Text: text, FetchedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal transcript cache failed: %w", err)
	}
	if err := c.client.Set(ctx, transcriptKey(videoID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set transcript failed: %w", err)
	}
	return nil
}

func (c *TranscriptCache) Delete(ctx context.Context, videoID string) error {
	if err := c.client.Del(ctx, transcriptKey(videoID)).Err(); err != nil {
		return fmt.Errorf("redis delete transcript failed: %w", err)
	}
	return nil
}

func transcriptKey(videoID string) string {
	return fmt.Sprintf("%s:transcript:%s", keyPrefix, videoID)
}

// contentHash is a short blake2b digest used to key content of unbounded
// length.
func contentHash(parts ...string) string {
	h, _ := blake2b.New(20, nil)
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
