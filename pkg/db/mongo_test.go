package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("read missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		doc := NewMongoDocument(mt.Coll, "")
		_, err := doc.Read(context.Background())
		assert.ErrorIs(mt, err, ErrNotExist)
	})

	mt.Run("read existing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "articles"},
			{Key: "data", Value: `{"abc":{}}`},
		}))

		doc := NewMongoDocument(mt.Coll, "articles")
		data, err := doc.Read(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, `{"abc":{}}`, string(data))
	})

	mt.Run("write upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		doc := NewMongoDocument(mt.Coll, "articles")
		require.NoError(mt, doc.Write(context.Background(), []byte(`{}`)))
	})
}
