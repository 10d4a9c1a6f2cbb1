package service

import (
	"context"
	"testing"
	"time"

	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/models"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestHistoryService(t *testing.T) *HistoryService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}
	// 内存数据库按连接隔离，限制连接池避免跨连接丢表
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	err = db.AutoMigrate(
		&models.CPUHistory{},
		&models.MemoryHistory{},
		&models.DiskHistory{},
		&models.NetworkHistory{},
		&models.GPUHistory{},
	)
	if err != nil {
		t.Fatalf("建表失败: %v", err)
	}

	return NewHistoryService(zap.NewNop(), db, config.HistoryConfig{WriteTimeoutMs: 3000})
}

func TestRecordAndQuery(t *testing.T) {
	s := newTestHistoryService(t)
	ctx := context.Background()
	ts := time.Now().UnixMilli()

	bundle := &protocol.SnapshotBundle{
		Timestamp: ts,
		CPU:       &protocol.CPUData{UsagePercent: 42.5, Load1: 1.5, Timestamp: ts},
		Memory:    &protocol.MemoryData{UsagePercent: 60, Total: 16 << 30, Used: 8 << 30, Timestamp: ts},
		Disk: []protocol.DiskData{
			{MountPoint: "/", UsagePercent: 50, Total: 100 << 30, Timestamp: ts},
			{MountPoint: "/broken", Error: "io error", Timestamp: ts},
		},
		DiskIO: []protocol.DiskIOData{
			{Device: "sda", ReadBytes: 1000, WriteBytes: 2000, Timestamp: ts},
			{Device: "sdb", ReadBytes: 500, WriteBytes: 500, Timestamp: ts},
		},
		Network: []protocol.NetworkData{
			{Interface: "eth0", BytesSent: 100, BytesRecv: 200, Timestamp: ts},
		},
		GPU: []protocol.GPUData{
			{Index: 0, Name: "RTX 4090", Utilization: 30, Timestamp: ts},
			{Index: 1, Error: "nvml error", Timestamp: ts},
		},
	}

	s.Record(ctx, bundle)

	t.Run("cpu", func(t *testing.T) {
		result, err := s.Query(ctx, protocol.MetricTypeCPU, 0, 0)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		records := result.([]models.CPUHistory)
		if len(records) != 1 || records[0].UsagePercent != 42.5 {
			t.Errorf("CPU 记录不对: %+v", records)
		}
	})

	t.Run("disk", func(t *testing.T) {
		result, err := s.Query(ctx, protocol.MetricTypeDisk, 0, 0)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		records := result.([]models.DiskHistory)
		// 采集失败的分区不落库
		if len(records) != 1 {
			t.Fatalf("磁盘记录数不对: %d", len(records))
		}
		// 全盘累计 IO 为各设备之和
		if records[0].ReadBytes != 1500 || records[0].WriteBytes != 2500 {
			t.Errorf("累计 IO 不对: read=%d write=%d", records[0].ReadBytes, records[0].WriteBytes)
		}
	})

	t.Run("gpu", func(t *testing.T) {
		result, err := s.Query(ctx, protocol.MetricTypeGPU, 0, 0)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		records := result.([]models.GPUHistory)
		if len(records) != 1 || records[0].GPUName != "RTX 4090" {
			t.Errorf("GPU 记录不对: %+v", records)
		}
	})

	t.Run("network", func(t *testing.T) {
		result, err := s.Query(ctx, protocol.MetricTypeNetwork, 0, 0)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		records := result.([]models.NetworkHistory)
		if len(records) != 1 || records[0].Interface != "eth0" {
			t.Errorf("网络记录不对: %+v", records)
		}
	})
}

func TestRecordNilBundle(t *testing.T) {
	s := newTestHistoryService(t)
	// 不应 panic
	s.Record(context.Background(), nil)
	s.Record(context.Background(), &protocol.SnapshotBundle{})
}

func TestQueryUnknownMetric(t *testing.T) {
	s := newTestHistoryService(t)

	if _, err := s.Query(context.Background(), protocol.MetricType("bogus"), 0, 0); err == nil {
		t.Error("未知指标类型应返回错误")
	}
}

func TestPurge(t *testing.T) {
	s := newTestHistoryService(t)
	ctx := context.Background()
	now := time.Now()

	old := now.Add(-48 * time.Hour).UnixMilli()
	fresh := now.UnixMilli()

	s.Record(ctx, &protocol.SnapshotBundle{CPU: &protocol.CPUData{UsagePercent: 10, Timestamp: old}})
	s.Record(ctx, &protocol.SnapshotBundle{CPU: &protocol.CPUData{UsagePercent: 20, Timestamp: fresh}})

	deleted, err := s.Purge(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if deleted != 1 {
		t.Errorf("删除条数不对: %d", deleted)
	}

	result, err := s.Query(ctx, protocol.MetricTypeCPU, 0, 0)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	records := result.([]models.CPUHistory)
	if len(records) != 1 || records[0].UsagePercent != 20 {
		t.Errorf("保留期内的记录应保留: %+v", records)
	}
}
