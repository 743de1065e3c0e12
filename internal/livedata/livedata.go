// Package livedata wraps the Firebase Realtime Database the wearable
// writes its telemetry to. The engine only ever point-reads the latest
// value at a path or tails the last N entries of a list sub-tree; both are
// exposed through the Reader interface so the aggregation core can be
// tested against a stub.
package livedata

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Reader is the read surface of the live-data store.
type Reader interface {
	// Read returns the latest value at path, or nil when the path holds
	// no data yet.
	Read(ctx context.Context, path string) (map[string]interface{}, error)

	// ReadLast returns the last n entries of a list sub-tree, keyed by
	// insertion identifier. nil when the sub-tree is empty.
	ReadLast(ctx context.Context, path string, n int) (map[string]interface{}, error)
}

// Client implements Reader against Firebase.
type Client struct {
	db *db.Client
}

func NewClient(ctx context.Context, databaseURL, serviceAccountJSON string) (*Client, error) {
	conf := &firebase.Config{DatabaseURL: databaseURL}
	opt := option.WithCredentialsJSON([]byte(serviceAccountJSON))

	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting database client: %w", err)
	}

	c := &Client{db: client}
	if err := c.testConnection(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// testConnection probes the database root with a short retry so a bad
// credential or URL fails the process at startup instead of on the first
// request.
func (c *Client) testConnection(ctx context.Context) error {
	const maxRetries = 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var probe interface{}
		err := c.db.NewRef("/").Get(ctx, &probe)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("firebase connection test failed")
		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return fmt.Errorf("failed to connect to firebase after %d attempts", maxRetries)
}

func (c *Client) Read(ctx context.Context, path string) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := c.db.NewRef(path).Get(ctx, &data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (c *Client) ReadLast(ctx context.Context, path string, n int) (map[string]interface{}, error) {
	var data map[string]interface{}
	query := c.db.NewRef(path).OrderByKey().LimitToLast(n)
	if err := query.Get(ctx, &data); err != nil {
		return nil, fmt.Errorf("reading last %d of %s: %w", n, path, err)
	}
	return data, nil
}
