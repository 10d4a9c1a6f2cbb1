package metric

import (
	"encoding/binary"
	"sort"
	"strings"
	"sync"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var trackerBucket = []byte("counter_baselines")

// counterEntry 单个计数器的基线状态
type counterEntry struct {
	mu   sync.Mutex
	seen bool
	last uint64
}

// Tracker 累计计数器增量跟踪器
// 以 (指标名, 标签组) 为键记录上次观测值：
// 首次观测建立基线返回 0，之后返回与上次的差值，
// 观测值回退（计数器重置）时重建基线返回 0，绝不产生负增量
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*counterEntry
	db      *bbolt.DB
	logger  *zap.Logger
}

// NewTracker 创建跟踪器
// stateFile 非空时用 bbolt 持久化基线，进程重启后不会把已统计过的流量重复计入
func NewTracker(logger *zap.Logger, stateFile string) (*Tracker, error) {
	t := &Tracker{
		entries: make(map[string]*counterEntry),
		logger:  logger,
	}

	if stateFile != "" {
		db, err := bbolt.Open(stateFile, 0600, nil)
		if err != nil {
			return nil, err
		}
		t.db = db
		if err := t.loadBaselines(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return t, nil
}

// buildKey 指标名加按键排序的标签组
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}

// Observe 观测一次累计计数器的当前值，返回相对上次观测的增量
func (t *Tracker) Observe(name string, labels map[string]string, value uint64) uint64 {
	key := buildKey(name, labels)

	t.mu.RLock()
	entry, ok := t.entries[key]
	t.mu.RUnlock()

	if !ok {
		t.mu.Lock()
		entry, ok = t.entries[key]
		if !ok {
			entry = &counterEntry{}
			t.entries[key] = entry
		}
		t.mu.Unlock()
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.seen {
		entry.seen = true
		entry.last = value
		return 0
	}

	if value < entry.last {
		// 计数器重置，重建基线
		entry.last = value
		return 0
	}

	delta := value - entry.last
	entry.last = value
	return delta
}

// loadBaselines 从 bbolt 恢复上次保存的基线
func (t *Tracker) loadBaselines() error {
	return t.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(trackerBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			if len(v) != 8 {
				return nil
			}
			t.entries[string(k)] = &counterEntry{
				seen: true,
				last: binary.BigEndian.Uint64(v),
			}
			return nil
		})
	})
}

// Flush 把当前所有基线写入 bbolt，未配置持久化时为空操作
func (t *Tracker) Flush() error {
	if t.db == nil {
		return nil
	}

	t.mu.RLock()
	snapshot := make(map[string]uint64, len(t.entries))
	for key, entry := range t.entries {
		entry.mu.Lock()
		if entry.seen {
			snapshot[key] = entry.last
		}
		entry.mu.Unlock()
	}
	t.mu.RUnlock()

	return t.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(trackerBucket)
		if err != nil {
			return err
		}
		for key, last := range snapshot {
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], last)
			if err := bucket.Put([]byte(key), buf[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close 落盘并关闭持久化存储
func (t *Tracker) Close() error {
	if t.db == nil {
		return nil
	}
	if err := t.Flush(); err != nil {
		t.logger.Error("保存计数器基线失败", zap.Error(err))
	}
	return t.db.Close()
}
