package flowvar

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// ReaderAtCloser is what columnar readers need: random access plus cleanup.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// IsGoogleStorage reports whether path names a Google Storage object.
func IsGoogleStorage(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

func splitGoogleStoragePath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// ReadTable returns the full, decompressed contents of a local or gs:// table.
// client may be nil when no gs:// paths are in use.
func ReadTable(ctx context.Context, path string, client *storage.Client) ([]byte, error) {
	var rc io.ReadCloser

	if IsGoogleStorage(path) {
		if client == nil {
			return nil, pfx.Err(fmt.Errorf("%s: a google storage client is required", path))
		}
		bucket, object, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		rc, err = client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}
	} else {
		f, err := os.Open(ExpandHome(path))
		if err != nil {
			return nil, pfx.Err(err)
		}
		rc = f
	}
	defer rc.Close()

	r, _, err := MaybeDecompress(rc)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return out, nil
}

// OpenReaderAt opens a local or gs:// object for random access and reports its
// size in bytes.
func OpenReaderAt(ctx context.Context, path string, client *storage.Client) (ReaderAtCloser, int64, error) {
	if IsGoogleStorage(path) {
		if client == nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: a google storage client is required", path))
		}
		bucket, object, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, 0, pfx.Err(err)
		}

		handle := client.Bucket(bucket).Object(object)

		// Make a hard call to get the filesize
		attrs, err := handle.Attrs(ctx)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return &GSReaderAtCloser{ObjectHandle: handle, Context: ctx}, attrs.Size, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return nil, 0, pfx.Err(err)
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, pfx.Err(err)
	}

	return f, fstat.Size(), nil
}

// GSReaderAtCloser decorates a Google Storage object handle with ReadAt. Each
// ReadAt issues its own range request.
type GSReaderAtCloser struct {
	*storage.ObjectHandle
	Context context.Context
}

func (o *GSReaderAtCloser) ReadAt(p []byte, offset int64) (int, error) {
	rdr, err := o.NewRangeReader(o.Context, offset, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	n, err := io.ReadFull(rdr, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return n, err
}

// Close is a nop; range readers are closed after every ReadAt.
func (o *GSReaderAtCloser) Close() error {
	return nil
}

// ExpandHome expands ~ to its proper path, where appropriate.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		usr, err := user.Current()
		if err != nil {
			return path
		}
		return filepath.Join(usr.HomeDir, strings.TrimPrefix(path, "~"))
	}

	return path
}
