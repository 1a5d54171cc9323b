package contact

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ashwinyue/assessly/internal/model"
)

// Header CSV 文件表头
var Header = []string{"Name", "Email", "Message", "Timestamp"}

// 以这些字符开头的单元格会被电子表格当作公式
const formulaPrefixes = "=+-@\t\r"

// escapeCell 公式前缀的单元格前加单引号
func escapeCell(v string) string {
	if v != "" && strings.ContainsRune(formulaPrefixes, rune(v[0])) {
		return "'" + v
	}
	return v
}

// unescapeCell 还原 escapeCell
func unescapeCell(v string) string {
	if len(v) > 1 && v[0] == '\'' && strings.ContainsRune(formulaPrefixes, rune(v[1])) {
		return v[1:]
	}
	return v
}

// FileStore 追加写入的 CSV 文件
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore 创建文件存储
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append 追加一行，文件为空时先写表头
func (s *FileStore) Append(_ context.Context, record *model.ContactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open contact log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat contact log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	row := []string{
		escapeCell(record.Name),
		escapeCell(record.Email),
		escapeCell(record.Message),
		record.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write contact: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush contact log: %w", err)
	}
	return nil
}

// List 读取全部记录并按时间倒序返回
func (s *FileStore) List(_ context.Context, limit int) ([]*model.ContactRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*model.ContactRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open contact log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var records []*model.ContactRecord
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read contact log: %w", err)
		}
		if first {
			first = false
			if row[0] == Header[0] {
				continue
			}
		}
		ts, _ := time.Parse(time.RFC3339, row[3])
		records = append(records, &model.ContactRecord{
			Name:      unescapeCell(row[0]),
			Email:     unescapeCell(row[1]),
			Message:   unescapeCell(row[2]),
			CreatedAt: ts,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit = normalizeLimit(limit); len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
