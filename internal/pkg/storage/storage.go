// Package storage 保存模板源文件与生成的 PDF，支持本地目录与 MinIO。
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/hrms-go/backend/config"
	"k8s.io/klog/v2"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage 以 key 读写对象，key 使用 / 分隔
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewObjectKey 生成 prefix/<uuid><ext> 形式的对象名
func NewObjectKey(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, uuid.NewString()+ext)
}

// New 根据配置创建存储后端
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		klog.V(6).Infof("使用本地文件存储: %s", cfg.LocalDir)
		return NewLocal(cfg.LocalDir)
	case "minio":
		klog.V(6).Infof("使用 MinIO 存储: endpoint=%s, bucket=%s", cfg.Minio.Endpoint, cfg.Minio.Bucket)
		s, err := NewMinio(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("invalid object key")
	}
	return key, nil
}
