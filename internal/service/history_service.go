package service

import (
	"context"
	"time"

	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/models"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/dushixiang/marmot/internal/repo"
	"github.com/go-errors/errors"
	"github.com/go-orz/orz"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HistoryService 历史指标服务
// 负责把快照落库、查询历史、统计以及按保留期清理
type HistoryService struct {
	Service      *orz.Service
	HistoryRepo  *repo.HistoryRepo
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewHistoryService 创建历史指标服务
func NewHistoryService(logger *zap.Logger, db *gorm.DB, cfg config.HistoryConfig) *HistoryService {
	writeTimeout := time.Duration(cfg.WriteTimeoutMs) * time.Millisecond
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Second
	}
	return &HistoryService{
		Service:      orz.NewService(db),
		HistoryRepo:  repo.NewHistoryRepo(db),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Record 把一份快照写入各历史表
// 每个域的写入带独立超时，失败只记日志，绝不阻塞采集周期
func (s *HistoryService) Record(ctx context.Context, bundle *protocol.SnapshotBundle) {
	if bundle == nil {
		return
	}

	if bundle.CPU != nil {
		s.write(ctx, "cpu", func(ctx context.Context) error {
			return s.HistoryRepo.CreateCPU(ctx, &models.CPUHistory{
				Timestamp:    bundle.CPU.Timestamp,
				UsagePercent: bundle.CPU.UsagePercent,
				FrequencyMHz: bundle.CPU.FrequencyMHz,
				Load1:        bundle.CPU.Load1,
				Load5:        bundle.CPU.Load5,
				Load15:       bundle.CPU.Load15,
			})
		})
	}

	if bundle.Memory != nil {
		s.write(ctx, "memory", func(ctx context.Context) error {
			return s.HistoryRepo.CreateMemory(ctx, &models.MemoryHistory{
				Timestamp:      bundle.Memory.Timestamp,
				VirtualTotal:   bundle.Memory.Total,
				VirtualUsed:    bundle.Memory.Used,
				VirtualPercent: bundle.Memory.UsagePercent,
				SwapTotal:      bundle.Memory.SwapTotal,
				SwapUsed:       bundle.Memory.SwapUsed,
				SwapPercent:    bundle.Memory.SwapPercent,
			})
		})
	}

	if len(bundle.Disk) > 0 {
		// 全盘累计 IO 计数随每条分区记录一起保存
		var readBytes, writeBytes uint64
		for _, io := range bundle.DiskIO {
			readBytes += io.ReadBytes
			writeBytes += io.WriteBytes
		}

		records := make([]models.DiskHistory, 0, len(bundle.Disk))
		for _, d := range bundle.Disk {
			if d.Error != "" {
				continue
			}
			records = append(records, models.DiskHistory{
				Timestamp:    d.Timestamp,
				MountPoint:   d.MountPoint,
				Total:        d.Total,
				Used:         d.Used,
				UsagePercent: d.UsagePercent,
				ReadBytes:    readBytes,
				WriteBytes:   writeBytes,
			})
		}
		s.write(ctx, "disk", func(ctx context.Context) error {
			return s.HistoryRepo.CreateDisk(ctx, records)
		})
	}

	if len(bundle.Network) > 0 {
		records := make([]models.NetworkHistory, 0, len(bundle.Network))
		for _, n := range bundle.Network {
			records = append(records, models.NetworkHistory{
				Timestamp:     n.Timestamp,
				Interface:     n.Interface,
				BytesSent:     n.BytesSent,
				BytesRecv:     n.BytesRecv,
				UploadSpeed:   n.UploadSpeed,
				DownloadSpeed: n.DownloadSpeed,
			})
		}
		s.write(ctx, "network", func(ctx context.Context) error {
			return s.HistoryRepo.CreateNetwork(ctx, records)
		})
	}

	if len(bundle.GPU) > 0 {
		records := make([]models.GPUHistory, 0, len(bundle.GPU))
		for _, g := range bundle.GPU {
			if g.Error != "" {
				continue
			}
			records = append(records, models.GPUHistory{
				Timestamp:     g.Timestamp,
				GPUIndex:      g.Index,
				GPUName:       g.Name,
				Utilization:   g.Utilization,
				MemoryPercent: g.MemoryPercent,
				MemoryUsed:    g.MemoryUsed,
				MemoryTotal:   g.MemoryTotal,
				Temperature:   g.Temperature,
				PowerUsage:    g.PowerUsage,
			})
		}
		s.write(ctx, "gpu", func(ctx context.Context) error {
			return s.HistoryRepo.CreateGPU(ctx, records)
		})
	}
}

func (s *HistoryService) write(ctx context.Context, domain string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.logger.Error("写入历史记录失败",
			zap.String("domain", domain),
			zap.Error(errors.Wrap(err, 0)),
		)
	}
}

// Query 查询某类指标在指定时间之后的历史记录，按时间倒序
func (s *HistoryService) Query(ctx context.Context, metricType protocol.MetricType, since int64, limit int) (interface{}, error) {
	switch metricType {
	case protocol.MetricTypeCPU:
		return s.HistoryRepo.FindCPUSince(ctx, since, limit)
	case protocol.MetricTypeMemory:
		return s.HistoryRepo.FindMemorySince(ctx, since, limit)
	case protocol.MetricTypeDisk:
		return s.HistoryRepo.FindDiskSince(ctx, since, limit)
	case protocol.MetricTypeNetwork:
		return s.HistoryRepo.FindNetworkSince(ctx, since, limit)
	case protocol.MetricTypeGPU:
		return s.HistoryRepo.FindGPUSince(ctx, since, limit)
	default:
		return nil, errors.Errorf("未知的指标类型: %s", metricType)
	}
}

// Statistics 统计某类指标在指定时间之后的最小值、最大值、平均值和样本数
func (s *HistoryService) Statistics(ctx context.Context, metricType protocol.MetricType, since int64) (*repo.MetricStats, error) {
	return s.HistoryRepo.Stats(ctx, metricType, since)
}

// Purge 删除超过保留期的历史记录
func (s *HistoryService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UnixMilli()

	var deleted int64
	err := s.Service.Transaction(ctx, func(ctx context.Context) error {
		n, err := s.HistoryRepo.DeleteBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}

	if deleted > 0 {
		s.logger.Info("清理历史记录完成",
			zap.Int64("deleted", deleted),
			zap.Int64("cutoff", cutoff),
		)
	}
	return deleted, nil
}

// Counts 各历史表当前的记录数
func (s *HistoryService) Counts(ctx context.Context) (map[string]int64, error) {
	return s.HistoryRepo.Counts(ctx)
}
