package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// ErrNoSnapshot 尚未导入任何快照
var ErrNoSnapshot = errors.New("no snapshot imported yet")

// bucketInsertBatch 每批写入的桶数量
const bucketInsertBatch = 500

// bucketDoc 快照中的一个桶，按 seq 保持导入顺序
type bucketDoc struct {
	SnapshotID         string `bson:"snapshotId"`
	Seq                int    `bson:"seq"`
	models.SalesBucket `bson:",inline"`
}

// Store 基于全局 MongoDB 连接的存储实现
type Store struct{}

// SaveSnapshot 保存快照元数据和明细桶。明细先写入，元数据最后写入，
// 因此 LatestSnapshot 不会读到不完整的快照。
func (Store) SaveSnapshot(c context.Context, snap *models.Snapshot) error {
	buckets := Collection(SnapshotBucketsCollection)
	for start := 0; start < len(snap.Buckets); start += bucketInsertBatch {
		end := start + bucketInsertBatch
		if end > len(snap.Buckets) {
			end = len(snap.Buckets)
		}
		docs := make([]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			docs = append(docs, bucketDoc{SnapshotID: snap.ID, Seq: i, SalesBucket: snap.Buckets[i]})
		}
		if _, err := ExecuteDbOperation(func() (interface{}, error) {
			return buckets.InsertMany(c, docs)
		}, 3); err != nil {
			// 清理已写入的部分
			if _, delErr := buckets.DeleteMany(c, bson.M{"snapshotId": snap.ID}); delErr != nil {
				utils.Logger.Error().Err(delErr).Str("snapshotId", snap.ID).Msg("清理不完整快照失败")
			}
			return fmt.Errorf("写入快照明细失败: %w", err)
		}
	}

	if _, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(SnapshotsCollection).InsertOne(c, snap)
	}, 3); err != nil {
		return fmt.Errorf("写入快照失败: %w", err)
	}

	utils.LogDbOperation("insert", SnapshotsCollection, bson.M{"_id": snap.ID}, len(snap.Buckets))
	return nil
}

// LatestSnapshot 读取最新快照及其全部桶
func (s Store) LatestSnapshot(c context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if _, err := ExecuteDbOperation(func() (interface{}, error) {
		return nil, Collection(SnapshotsCollection).FindOne(c, bson.M{}, opts).Decode(&snap)
	}, 3); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("查询最新快照失败: %w", err)
	}

	buckets, err := s.snapshotBuckets(c, snap.ID)
	if err != nil {
		return nil, err
	}
	snap.Buckets = buckets
	return &snap, nil
}

func (Store) snapshotBuckets(c context.Context, snapshotID string) ([]models.SalesBucket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := Collection(SnapshotBucketsCollection).Find(c, bson.M{"snapshotId": snapshotID}, opts)
	if err != nil {
		return nil, fmt.Errorf("查询快照明细失败: %w", err)
	}
	defer cursor.Close(c)

	var docs []bucketDoc
	if err := cursor.All(c, &docs); err != nil {
		return nil, fmt.Errorf("解析快照明细失败: %w", err)
	}
	out := make([]models.SalesBucket, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.SalesBucket)
	}
	return out, nil
}

// ListSnapshots 按创建时间倒序列出快照元数据
func (Store) ListSnapshots(c context.Context, limit int64) ([]models.Snapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := Collection(SnapshotsCollection).Find(c, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("查询快照列表失败: %w", err)
	}
	defer cursor.Close(c)

	snaps := []models.Snapshot{}
	if err := cursor.All(c, &snaps); err != nil {
		return nil, fmt.Errorf("解析快照列表失败: %w", err)
	}
	return snaps, nil
}
