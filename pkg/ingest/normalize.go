package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// Fingerprint hashes the lowercase-trimmed headline. Two items with the
// same headline are the same event regardless of source. MD5 is fine
// here: this is a dedup key, not a security boundary.
func Fingerprint(headline string) string {
	normalized := strings.ToLower(strings.TrimSpace(headline))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Normalize converts a raw connector item to the canonical article. A
// missing body falls back to the description, then to empty.
func Normalize(item RawItem) *models.Article {
	body := item.Body
	if body == "" {
		body = item.Description
	}

	ts := item.PublishedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &models.Article{
		EventID:   Fingerprint(item.Title),
		Timestamp: ts,
		Source:    item.Source,
		Headline:  item.Title,
		Body:      body,
		URL:       item.URL,
		Processed: false,
	}
}
