package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/dushixiang/marmot/internal/models"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *HistoryRepo {
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

	return NewHistoryRepo(db)
}

func TestCreateAndFindCPU(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for i, ts := range []int64{1000, 3000, 2000} {
		record := &models.CPUHistory{Timestamp: ts, UsagePercent: float64(10 * (i + 1))}
		if err := r.CreateCPU(ctx, record); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	records, err := r.FindCPUSince(ctx, 0, 0)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("记录数不对: %d", len(records))
	}

	// 按时间倒序, 最新的在前
	wantOrder := []int64{3000, 2000, 1000}
	for i, record := range records {
		if record.Timestamp != wantOrder[i] {
			t.Errorf("第 %d 条时间戳不对: 期望 %d, 实际 %d", i, wantOrder[i], record.Timestamp)
		}
	}
}

func TestFindSinceBoundary(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000} {
		if err := r.CreateCPU(ctx, &models.CPUHistory{Timestamp: ts}); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	// since 为闭区间下界
	records, err := r.FindCPUSince(ctx, 2000, 0)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("期望 2 条, 实际 %d", len(records))
	}
}

func TestFindSinceLimit(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for ts := int64(1); ts <= 5; ts++ {
		if err := r.CreateCPU(ctx, &models.CPUHistory{Timestamp: ts * 1000}); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	records, err := r.FindCPUSince(ctx, 0, 2)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("limit 未生效: %d", len(records))
	}
	// limit 截取的是最新的记录
	if records[0].Timestamp != 5000 || records[1].Timestamp != 4000 {
		t.Errorf("应返回最新的 2 条: %d, %d", records[0].Timestamp, records[1].Timestamp)
	}
}

func TestCreateBatchEmpty(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.CreateDisk(ctx, nil); err != nil {
		t.Errorf("空批量写入应直接返回: %v", err)
	}
	if err := r.CreateNetwork(ctx, []models.NetworkHistory{}); err != nil {
		t.Errorf("空批量写入应直接返回: %v", err)
	}
	if err := r.CreateGPU(ctx, nil); err != nil {
		t.Errorf("空批量写入应直接返回: %v", err)
	}
}

func TestDeleteBefore(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000} {
		if err := r.CreateCPU(ctx, &models.CPUHistory{Timestamp: ts}); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
		if err := r.CreateMemory(ctx, &models.MemoryHistory{Timestamp: ts}); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	// cutoff 为开区间上界, 等于 cutoff 的记录保留
	deleted, err := r.DeleteBefore(ctx, 2000)
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if deleted != 2 {
		t.Errorf("删除条数不对: 期望 2, 实际 %d", deleted)
	}

	records, err := r.FindCPUSince(ctx, 0, 0)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("剩余记录数不对: %d", len(records))
	}
	for _, record := range records {
		if record.Timestamp < 2000 {
			t.Errorf("过期记录未删除: %d", record.Timestamp)
		}
	}
}

func TestStats(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, usage := range []float64{10, 20, 60} {
		if err := r.CreateCPU(ctx, &models.CPUHistory{Timestamp: 1000, UsagePercent: usage}); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	stats, err := r.Stats(ctx, protocol.MetricTypeCPU, 0)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.Min != 10 {
		t.Errorf("最小值不对: %v", stats.Min)
	}
	if stats.Max != 60 {
		t.Errorf("最大值不对: %v", stats.Max)
	}
	if stats.Avg != 30 {
		t.Errorf("平均值不对: %v", stats.Avg)
	}
	if stats.Count != 3 {
		t.Errorf("样本数不对: %v", stats.Count)
	}
}

func TestStatsEmpty(t *testing.T) {
	r := newTestRepo(t)

	stats, err := r.Stats(context.Background(), protocol.MetricTypeCPU, 0)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.Count != 0 || stats.Min != 0 || stats.Max != 0 || stats.Avg != 0 {
		t.Errorf("空表统计应全为零值: %+v", stats)
	}
}

func TestStatsNetworkUnsupported(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.Stats(context.Background(), protocol.MetricTypeNetwork, 0)
	if !errors.Is(err, ErrStatsUnsupported) {
		t.Errorf("network 统计应返回 ErrStatsUnsupported: %v", err)
	}
}

func TestCounts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.CreateCPU(ctx, &models.CPUHistory{Timestamp: 1000}); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := r.CreateGPU(ctx, []models.GPUHistory{{Timestamp: 1000}, {Timestamp: 1000}}); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	counts, err := r.Counts(ctx)
	if err != nil {
		t.Fatalf("统计记录数失败: %v", err)
	}
	if counts["cpu_history"] != 1 {
		t.Errorf("cpu_history 记录数不对: %d", counts["cpu_history"])
	}
	if counts["gpu_history"] != 2 {
		t.Errorf("gpu_history 记录数不对: %d", counts["gpu_history"])
	}
	if counts["memory_history"] != 0 {
		t.Errorf("memory_history 记录数不对: %d", counts["memory_history"])
	}
}
