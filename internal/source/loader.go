package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config — настройки S3-совместимого хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Config — настройки загрузчика.
type Config struct {
	// UploadDir — каталог загруженных файлов. Если файл не найден по пути,
	// он ищется здесь по базовому имени.
	UploadDir string

	// S3 — объектное хранилище для путей s3://. Пустой Endpoint — не используется.
	S3 S3Config

	Logger *slog.Logger
}

// Loader загружает таблицы из файлов, объектного хранилища, PostgreSQL и Kafka.
//
// Loader не хранит данных между вызовами: каждый Load — независимое чтение.
type Loader struct {
	uploadDir string
	s3        *minio.Client
	logger    *slog.Logger
}

// NewLoader создаёт загрузчик.
func NewLoader(cfg Config) (*Loader, error) {
	l := &Loader{
		uploadDir: cfg.UploadDir,
		logger:    cfg.Logger,
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	if cfg.S3.Endpoint != "" {
		client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
			Secure: cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		l.s3 = client
	}
	return l, nil
}

// Load загружает таблицу по описанию источника.
func (l *Loader) Load(ctx context.Context, spec Spec) (*Result, error) {
	if spec.IsZero() {
		return nil, ErrEmptySpec
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch spec.Kind {
	case KindSQL:
		return loadSQL(ctx, spec)
	case KindKafka:
		return loadKafka(ctx, spec)
	}

	if bucket, key, ok := splitS3(spec.Path); ok {
		return l.loadObject(ctx, bucket, key, spec)
	}
	return l.loadFile(spec)
}

// loadFile читает локальный файл.
func (l *Loader) loadFile(spec Spec) (*Result, error) {
	path, err := l.resolve(spec.Path)
	if err != nil {
		return nil, err
	}

	format, gzipped := formatOf(spec, path)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	t, err := Parse(f, format, gzipped, spec.Sheet)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &Result{Table: t, Origin: path, Bytes: size}, nil
}

// resolve находит файл по пути или по базовому имени в каталоге загрузок.
func (l *Loader) resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if l.uploadDir != "" {
		candidate := filepath.Join(l.uploadDir, filepath.Base(path))
		if _, err := os.Stat(candidate); err == nil {
			l.logger.Debug("source resolved in upload dir", "path", path, "resolved", candidate)
			return candidate, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// loadObject читает объект из S3-совместимого хранилища.
func (l *Loader) loadObject(ctx context.Context, bucket, key string, spec Spec) (*Result, error) {
	if l.s3 == nil {
		return nil, ErrNoObjectStore
	}

	format, gzipped := formatOf(spec, key)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, key)
	}

	obj, err := l.s3.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	// excelize читает книгу целиком, поэтому объект сначала загружается в память
	var buf bytes.Buffer
	n, err := io.Copy(&buf, obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}

	t, err := Parse(&buf, format, gzipped, spec.Sheet)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return &Result{Table: t, Origin: "s3://" + bucket + "/" + key, Bytes: n}, nil
}

// splitS3 разбирает s3://bucket/key.
func splitS3(path string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(path, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// formatOf возвращает формат из описания или по имени файла.
func formatOf(spec Spec, path string) (Format, bool) {
	format, gzipped := DetectFormat(path)
	if spec.Format != "" {
		format = spec.Format
	}
	if format == "" && spec.Name != "" {
		format, gzipped = DetectFormat(spec.Name)
	}
	return format, gzipped
}
