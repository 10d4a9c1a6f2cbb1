package repo

import (
	"context"
	"errors"

	"github.com/dushixiang/marmot/internal/models"
	"github.com/dushixiang/marmot/internal/protocol"
	"gorm.io/gorm"
)

// ErrStatsUnsupported 该指标类型没有规范的统计列
var ErrStatsUnsupported = errors.New("该指标类型不支持统计")

// MetricStats 指标统计结果
type MetricStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int64   `json:"count"`
}

// HistoryRepo 历史指标数据访问层
type HistoryRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) *HistoryRepo {
	return &HistoryRepo{
		db: db,
	}
}

// CreateCPU 写入 CPU 历史记录
func (r *HistoryRepo) CreateCPU(ctx context.Context, record *models.CPUHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// CreateMemory 写入内存历史记录
func (r *HistoryRepo) CreateMemory(ctx context.Context, record *models.MemoryHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// CreateDisk 批量写入磁盘历史记录
func (r *HistoryRepo) CreateDisk(ctx context.Context, records []models.DiskHistory) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

// CreateNetwork 批量写入网络历史记录
func (r *HistoryRepo) CreateNetwork(ctx context.Context, records []models.NetworkHistory) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

// CreateGPU 批量写入 GPU 历史记录
func (r *HistoryRepo) CreateGPU(ctx context.Context, records []models.GPUHistory) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

// FindCPUSince 查询指定时间之后的 CPU 记录，按时间倒序
func (r *HistoryRepo) FindCPUSince(ctx context.Context, since int64, limit int) ([]models.CPUHistory, error) {
	var records []models.CPUHistory
	err := r.sinceQuery(ctx, since, limit).Find(&records).Error
	return records, err
}

// FindMemorySince 查询指定时间之后的内存记录，按时间倒序
func (r *HistoryRepo) FindMemorySince(ctx context.Context, since int64, limit int) ([]models.MemoryHistory, error) {
	var records []models.MemoryHistory
	err := r.sinceQuery(ctx, since, limit).Find(&records).Error
	return records, err
}

// FindDiskSince 查询指定时间之后的磁盘记录，按时间倒序
func (r *HistoryRepo) FindDiskSince(ctx context.Context, since int64, limit int) ([]models.DiskHistory, error) {
	var records []models.DiskHistory
	err := r.sinceQuery(ctx, since, limit).Find(&records).Error
	return records, err
}

// FindNetworkSince 查询指定时间之后的网络记录，按时间倒序
func (r *HistoryRepo) FindNetworkSince(ctx context.Context, since int64, limit int) ([]models.NetworkHistory, error) {
	var records []models.NetworkHistory
	err := r.sinceQuery(ctx, since, limit).Find(&records).Error
	return records, err
}

// FindGPUSince 查询指定时间之后的 GPU 记录，按时间倒序
func (r *HistoryRepo) FindGPUSince(ctx context.Context, since int64, limit int) ([]models.GPUHistory, error) {
	var records []models.GPUHistory
	err := r.sinceQuery(ctx, since, limit).Find(&records).Error
	return records, err
}

func (r *HistoryRepo) sinceQuery(ctx context.Context, since int64, limit int) *gorm.DB {
	query := r.db.WithContext(ctx).Where("timestamp >= ?", since).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

// DeleteBefore 删除指定时间之前的所有历史记录，返回删除总条数
func (r *HistoryRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	var total int64
	targets := []interface{}{
		&models.CPUHistory{},
		&models.MemoryHistory{},
		&models.DiskHistory{},
		&models.NetworkHistory{},
		&models.GPUHistory{},
	}
	for _, target := range targets {
		result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(target)
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
	}
	return total, nil
}

// statsColumn 各指标类型参与统计的列
func statsColumn(metricType protocol.MetricType) (table, column string, ok bool) {
	switch metricType {
	case protocol.MetricTypeCPU:
		return models.CPUHistory{}.TableName(), "usage_percent", true
	case protocol.MetricTypeMemory:
		return models.MemoryHistory{}.TableName(), "virtual_percent", true
	case protocol.MetricTypeDisk:
		return models.DiskHistory{}.TableName(), "usage_percent", true
	case protocol.MetricTypeGPU:
		return models.GPUHistory{}.TableName(), "utilization", true
	}
	return "", "", false
}

// Stats 统计指定时间之后某类指标的最小值、最大值、平均值和样本数
// network 没有规范的百分比列，不支持统计
func (r *HistoryRepo) Stats(ctx context.Context, metricType protocol.MetricType, since int64) (*MetricStats, error) {
	table, column, ok := statsColumn(metricType)
	if !ok {
		return nil, ErrStatsUnsupported
	}

	var stats MetricStats
	err := r.db.WithContext(ctx).
		Table(table).
		Select("COALESCE(MIN("+column+"), 0) as min, COALESCE(MAX("+column+"), 0) as max, COALESCE(AVG("+column+"), 0) as avg, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Counts 各表当前的记录数（用于状态接口）
func (r *HistoryRepo) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 5)
	tables := map[string]interface{}{
		models.CPUHistory{}.TableName():     &models.CPUHistory{},
		models.MemoryHistory{}.TableName():  &models.MemoryHistory{},
		models.DiskHistory{}.TableName():    &models.DiskHistory{},
		models.NetworkHistory{}.TableName(): &models.NetworkHistory{},
		models.GPUHistory{}.TableName():     &models.GPUHistory{},
	}
	for name, target := range tables {
		var count int64
		if err := r.db.WithContext(ctx).Model(target).Count(&count).Error; err != nil {
			return nil, err
		}
		counts[name] = count
	}
	return counts, nil
}
