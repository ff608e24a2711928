package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions Mongo 后端配置
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	DocID      string // 文档 _id，默认 articles
}

// NewMongoClient 连接 Mongo
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(20))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return client, nil
}

// mongoDoc 整份 JSON 原样存到 data 字段，保持与文件后端一致的格式
type mongoDoc struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoDocument 单文档后端
type MongoDocument struct {
	coll  *mongo.Collection
	docID string
}

func NewMongoDocument(coll *mongo.Collection, docID string) *MongoDocument {
	if docID == "" {
		docID = "articles"
	}
	return &MongoDocument{coll: coll, docID: docID}
}

func (d *MongoDocument) Name() string {
	return "mongo:" + d.coll.Name() + "/" + d.docID
}

func (d *MongoDocument) Read(ctx context.Context) ([]byte, error) {
	var doc mongoDoc
	err := d.coll.FindOne(ctx, bson.M{"_id": d.docID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", d.docID, err)
	}
	return []byte(doc.Data), nil
}

func (d *MongoDocument) Write(ctx context.Context, data []byte) error {
	return d.put(ctx, d.docID, data)
}

func (d *MongoDocument) Preserve(ctx context.Context, data []byte) (string, error) {
	backup := d.docID + ":corrupt:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := d.put(ctx, backup, data); err != nil {
		return "", err
	}
	return backup, nil
}

func (d *MongoDocument) put(ctx context.Context, id string, data []byte) error {
	doc := mongoDoc{ID: id, Data: string(data), UpdatedAt: time.Now()}
	_, err := d.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace %s: %w", id, err)
	}
	return nil
}
