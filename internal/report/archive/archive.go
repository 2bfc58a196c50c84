// Package archive keeps a local, single-file history of reports in BoltDB
// for the command-line tool. Report bodies are snappy-compressed JSON.
package archive

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/golang/snappy"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

var (
	bucketReports = []byte("reports")
	// bucketTimeline maps created_at (big-endian nanos) + id to a summary,
	// so a reverse cursor walk lists newest first.
	bucketTimeline = []byte("timeline")
)

type Archive struct {
	db *bolt.DB
}

func Open(path string) (*Archive, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketReports, bucketTimeline} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising archive: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores r. Saving an ID that already exists is a no-op.
func (a *Archive) Save(_ context.Context, r *report.DebateReport) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report %s: %w", r.ID, err)
	}
	summary, err := json.Marshal(r.Summary())
	if err != nil {
		return fmt.Errorf("marshaling summary %s: %w", r.ID, err)
	}
	return a.db.Update(func(tx *bolt.Tx) error {
		reports := tx.Bucket(bucketReports)
		if reports.Get([]byte(r.ID)) != nil {
			return nil
		}
		if err := reports.Put([]byte(r.ID), snappy.Encode(nil, body)); err != nil {
			return err
		}
		return tx.Bucket(bucketTimeline).Put(timelineKey(r.CreatedAt, r.ID), summary)
	})
}

func (a *Archive) Get(_ context.Context, id string) (*report.DebateReport, error) {
	var r report.DebateReport
	err := a.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketReports).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrReportNotFound, id)
		}
		raw, err := snappy.Decode(nil, data)
		if err != nil {
			return fmt.Errorf("decompressing report %s: %w", id, err)
		}
		return json.Unmarshal(raw, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List walks the timeline newest first, applying the speaker filter before
// the offset.
func (a *Archive) List(_ context.Context, filter report.ListFilter) ([]report.Summary, error) {
	filter = filter.Normalize()
	out := make([]report.Summary, 0)
	err := a.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketTimeline).Cursor()
		skipped := 0
		for k, v := c.Last(); k != nil && len(out) < filter.Limit; k, v = c.Prev() {
			var sum report.Summary
			if err := json.Unmarshal(v, &sum); err != nil {
				return fmt.Errorf("decoding summary: %w", err)
			}
			if filter.Speaker != "" && !contains(sum.Speakers, filter.Speaker) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			out = append(out, sum)
		}
		return nil
	})
	return out, err
}

func timelineKey(t time.Time, id string) []byte {
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return append(key, id...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
