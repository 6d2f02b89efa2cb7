package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arloliu/colbin/compress"
	"github.com/arloliu/colbin/format"
	"github.com/arloliu/colbin/schema"
)

// DefaultExtension is the file extension of local cache files.
const DefaultExtension = ".cpb"

// LocalStore maps objects to cache files under a root directory:
//
//	<root>/<storage subfolder>/<trailing object id segment><ext>[<compression suffix>]
//
// A cache file always holds the full-schema payload of its object, all
// columns in catalog order, regardless of the selection that caused it to be
// written. Files may be stored raw or compressed; lookup probes the raw name
// first, then each compression suffix.
type LocalStore struct {
	root        string
	ext         string
	compression format.CompressionType
}

// NewLocalStore creates a store rooted at root. Store writes files compressed
// with compression; an empty ext selects DefaultExtension.
func NewLocalStore(root, ext string, compression format.CompressionType) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("local store root must not be empty")
	}
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if _, err := compress.GetCodec(compression); err != nil {
		return nil, err
	}

	return &LocalStore{root: root, ext: ext, compression: compression}, nil
}

// Root returns the cache root directory.
func (s *LocalStore) Root() string {
	return s.root
}

// Path returns the uncompressed cache file path of obj.
func (s *LocalStore) Path(obj *schema.Object) string {
	return filepath.Join(s.root, obj.StorageSubfolder, obj.TableID()+s.ext)
}

// candidates lists every path a cache file for obj may have, raw first.
func (s *LocalStore) candidates(obj *schema.Object) []string {
	base := s.Path(obj)

	return []string{
		base,
		base + format.CompressionZstd.FileSuffix(),
		base + format.CompressionS2.FileSuffix(),
		base + format.CompressionLZ4.FileSuffix(),
	}
}

// Lookup returns the path of the existing cache file of obj.
func (s *LocalStore) Lookup(obj *schema.Object) (string, bool) {
	for _, path := range s.candidates(obj) {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}

	return "", false
}

// Read loads and decompresses the whole cache file of obj.
//
// Returns:
//   - []byte: The decompressed full-schema payload
//   - string: The path read
//   - bool: false when obj has no cache file
//   - error: I/O or decompression failure of an existing file
func (s *LocalStore) Read(obj *schema.Object) ([]byte, string, bool, error) {
	path, ok := s.Lookup(obj)
	if !ok {
		return nil, "", false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", false, nil
		}

		return nil, path, true, fmt.Errorf("read cache file %s: %w", path, err)
	}

	codec, _ := compress.ForPath(path)
	data, err := codec.Decompress(raw)
	if err != nil {
		return nil, path, true, fmt.Errorf("decompress cache file %s: %w", path, err)
	}

	return data, path, true, nil
}

// Store writes the full-schema payload of obj, compressed with the store's
// compression. The file is written to a temporary name and renamed, so
// readers never observe a partial file.
//
// Returns:
//   - string: The path written
//   - compress.Stats: Sizes before and after compression
//   - error: Compression or I/O failure
func (s *LocalStore) Store(obj *schema.Object, payload []byte) (string, compress.Stats, error) {
	codec, err := compress.GetCodec(s.compression)
	if err != nil {
		return "", compress.Stats{}, err
	}

	data, stats, err := compress.Compress(codec, payload)
	if err != nil {
		return "", compress.Stats{}, err
	}

	path := s.Path(obj) + s.compression.FileSuffix()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", stats, fmt.Errorf("create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", stats, fmt.Errorf("create cache file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", stats, fmt.Errorf("write cache file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", stats, fmt.Errorf("close cache file %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", stats, fmt.Errorf("rename cache file %s: %w", path, err)
	}

	return path, stats, nil
}

// Remove deletes every cache file of obj.
func (s *LocalStore) Remove(obj *schema.Object) error {
	var errList []error
	for _, path := range s.candidates(obj) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errList = append(errList, err)
		}
	}

	return errors.Join(errList...)
}
