// Package notify implements the notification fan-out: one record copied into
// every recipient's inbox via bounded multi-document batches.
package notify

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var batchSize = batchSizeFromEnv()

func batchSizeFromEnv() int {
	if s := os.Getenv("FANOUT_BATCH_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

// NewNotification builds one record with a fresh unique id and read=false.
// The same record is copied by value into every recipient's inbox.
func NewNotification(ntype, title, message, eventID string) models.Notification {
	return models.Notification{
		ID:        uuid.NewString(),
		Type:      ntype,
		Title:     title,
		Message:   message,
		EventID:   eventID,
		CreatedAt: time.Now().UTC(),
		Read:      false,
	}
}

// partition splits logins into chunks bounded by the per-batch write limit.
func partition(logins []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var out [][]string
	for len(logins) > size {
		out = append(out, logins[:size])
		logins = logins[size:]
	}
	if len(logins) > 0 {
		out = append(out, logins)
	}
	return out
}

// Notify appends the record to each recipient's inbox. Writes are attempted
// for all recipients; per-recipient failures come back as *apperr.PartialFanout
// so the caller can retry just those, never the whole set.
func Notify(ctx context.Context, recipients []string, n models.Notification) error {
	var failed []string
	for _, chunk := range partition(recipients, batchSize) {
		failed = append(failed, appendBatch(ctx, chunk, n)...)
	}
	if len(failed) > 0 {
		return &apperr.PartialFanout{Failed: failed}
	}
	return nil
}

func appendBatch(ctx context.Context, logins []string, n models.Notification) []string {
	writes := make([]mongo.WriteModel, 0, len(logins))
	for _, login := range logins {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"login": login}).
			SetUpdate(bson.M{"$push": bson.M{"notifications": n}}))
	}

	bctx, cancel := db.Ctx(ctx)
	defer cancel()

	_, err := db.UserCollection.BulkWrite(bctx, writes, options.BulkWrite().SetOrdered(false))
	if err == nil {
		return nil
	}

	// An unordered bulk write keeps going past individual failures; pull the
	// failed offsets out so only those recipients are reported.
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		var failed []string
		for _, we := range bwe.WriteErrors {
			if we.Index >= 0 && we.Index < len(logins) {
				failed = append(failed, logins[we.Index])
			}
		}
		return failed
	}

	// Whole batch unreachable.
	return logins
}

// Broadcast copies the record into every known user's inbox except
// excludeLogin, enumerating logins through a paginated cursor so each write
// batch stays bounded regardless of total user count.
func Broadcast(ctx context.Context, n models.Notification, excludeLogin string) error {
	filter := bson.M{}
	if excludeLogin != "" {
		filter = bson.M{"login": bson.M{"$ne": excludeLogin}}
	}

	fctx, cancel := db.Ctx(ctx)
	defer cancel()

	cursor, err := db.UserCollection.Find(fctx, filter,
		options.Find().SetProjection(bson.M{"login": 1}).SetBatchSize(int32(batchSize)))
	if err != nil {
		return apperr.Storage("enumerate recipients", err)
	}
	defer cursor.Close(fctx)

	var failed []string
	chunk := make([]string, 0, batchSize)
	flush := func() {
		if len(chunk) == 0 {
			return
		}
		failed = append(failed, appendBatch(ctx, chunk, n)...)
		chunk = chunk[:0]
	}

	for cursor.Next(fctx) {
		var doc struct {
			Login string `bson:"login"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		chunk = append(chunk, doc.Login)
		if len(chunk) == batchSize {
			flush()
		}
	}
	flush()

	if err := cursor.Err(); err != nil {
		return apperr.Storage("enumerate recipients", err)
	}
	if len(failed) > 0 {
		return &apperr.PartialFanout{Failed: failed}
	}
	return nil
}
