package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"library-converter/internal/catalog"
	"library-converter/internal/filesystem"
	"library-converter/internal/mediatypes"
	"library-converter/internal/transcoder"
)

// fakeClient is an in-memory catalog. Upload returns "new-<deviceAssetId>".
type fakeClient struct {
	mu sync.Mutex

	payload     func(id string) []byte
	downloadErr map[string]error
	uploadErr   error
	duplicate   bool
	copyErr     map[string]error
	existsErr   error
	missing     bool
	deleteErr   map[string]error

	downloads []string
	uploads   []catalog.UploadRequest
	copies    [][2]string
	deleted   []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		payload: func(id string) []byte {
			return bytes.Repeat([]byte{0xAB}, 1000)
		},
		downloadErr: map[string]error{},
		copyErr:     map[string]error{},
		deleteErr:   map[string]error{},
	}
}

func (f *fakeClient) Search(context.Context, catalog.SearchQuery) ([]catalog.Asset, error) {
	return nil, nil
}

func (f *fakeClient) Download(_ context.Context, assetID, dest string) (int64, error) {
	f.mu.Lock()
	f.downloads = append(f.downloads, assetID)
	err := f.downloadErr[assetID]
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	data := f.payload(assetID)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (f *fakeClient) Upload(_ context.Context, req catalog.UploadRequest) (catalog.Uploaded, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	if f.uploadErr != nil {
		return catalog.Uploaded{}, f.uploadErr
	}
	return catalog.Uploaded{ID: "new-" + req.DeviceAssetID, Duplicate: f.duplicate}, nil
}

func (f *fakeClient) CopyRelations(_ context.Context, fromID, toID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, [2]string{fromID, toID})
	return f.copyErr[fromID]
}

func (f *fakeClient) Exists(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return !f.missing, nil
}

func (f *fakeClient) Delete(_ context.Context, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if err := f.deleteErr[id]; err != nil {
			return err
		}
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeClient) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.downloads)
}

// fakeHandler writes an output file whose size comes from sizeFor.
type fakeHandler struct {
	kind   mediatypes.Kind
	target string

	// sizeFor returns the output size for an attempt; input is the input size.
	sizeFor     func(input int64, q transcoder.Quality) int64
	alreadyDone bool
	failRetry   bool
	failFirst   bool
	invalid     bool
	detect      string
	panicMsg    string

	mu        sync.Mutex
	qualities []transcoder.Quality
}

func newImageHandler(sizes ...int64) *fakeHandler {
	return &fakeHandler{
		kind:   mediatypes.KindImage,
		target: mediatypes.TargetImageFormat,
		sizeFor: func(_ int64, q transcoder.Quality) int64 {
			if q.Retry && len(sizes) > 1 {
				return sizes[1]
			}
			return sizes[0]
		},
	}
}

func newVideoHandler(detect string) *fakeHandler {
	return &fakeHandler{
		kind:   mediatypes.KindVideo,
		target: mediatypes.TargetVideoContainer,
		detect: detect,
		sizeFor: func(input int64, _ transcoder.Quality) int64 {
			return input / 2
		},
	}
}

func (h *fakeHandler) Kind() mediatypes.Kind { return h.kind }

func (h *fakeHandler) Target() string { return h.target }

func (h *fakeHandler) Detect(context.Context, string) (string, bool) {
	return h.detect, h.detect != ""
}

func (h *fakeHandler) Transcode(_ context.Context, in, out string, q transcoder.Quality) transcoder.Outcome {
	h.mu.Lock()
	h.qualities = append(h.qualities, q)
	h.mu.Unlock()

	if h.panicMsg != "" {
		panic(h.panicMsg)
	}

	input, err := filesystem.FileSize(in)
	if err != nil {
		return transcoder.Outcome{Err: err}
	}
	if h.alreadyDone {
		return transcoder.Outcome{AlreadyDone: true, InputBytes: input, InputFormat: h.target}
	}
	if (q.Retry && h.failRetry) || (!q.Retry && h.failFirst) {
		return transcoder.Outcome{InputBytes: input, InputFormat: "png", Err: errors.New("encoder exited with status 1")}
	}

	size := h.sizeFor(input, q)
	if err := os.WriteFile(out, make([]byte, size), 0o644); err != nil {
		return transcoder.Outcome{Err: err}
	}
	return transcoder.Outcome{Success: true, InputBytes: input, OutputBytes: size, InputFormat: "png", Strategy: "fake"}
}

func (h *fakeHandler) Validate(_ context.Context, path string) bool {
	if h.invalid {
		return false
	}
	size, err := filesystem.FileSize(path)
	return err == nil && size > 0
}

func (h *fakeHandler) attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.qualities)
}

// recordingReporter discards log lines and keeps progress calls.
type recordingReporter struct {
	mu       sync.Mutex
	progress [][2]int
	summary  *Summary
	lines    []string
}

func (r *recordingReporter) log(asset catalog.Asset, format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, asset.ID+": "+fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Debugf(a catalog.Asset, f string, args ...interface{}) { r.log(a, f, args...) }
func (r *recordingReporter) Infof(a catalog.Asset, f string, args ...interface{}) { r.log(a, f, args...) }
func (r *recordingReporter) Warnf(a catalog.Asset, f string, args ...interface{}) { r.log(a, f, args...) }
func (r *recordingReporter) Errorf(a catalog.Asset, f string, args ...interface{}) { r.log(a, f, args...) }

func (r *recordingReporter) Progress(completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, [2]int{completed, total})
}

func (r *recordingReporter) Summary(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = &s
}

func imageAsset(id, name string) catalog.Asset {
	return catalog.Asset{
		ID:               id,
		OriginalFileName: name,
		Type:             "IMAGE",
		DeviceAssetID:    "dev-" + id,
		DeviceID:         "phone",
		FileCreatedAt:    "2023-05-01T10:00:00.000Z",
		FileModifiedAt:   "2023-05-02T10:00:00.000Z",
	}
}

func videoAsset(id, name string) catalog.Asset {
	a := imageAsset(id, name)
	a.Type = "VIDEO"
	return a
}

func newWorkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := filesystem.EnsureLayout(dir); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	return dir
}

func assertNoScratch(t *testing.T, workdir string) {
	t.Helper()
	for _, sub := range []string{"in", "out"} {
		entries, err := os.ReadDir(filepath.Join(workdir, sub))
		if err != nil {
			t.Fatalf("ReadDir(%s) error = %v", sub, err)
		}
		for _, e := range entries {
			t.Errorf("scratch file left behind: %s/%s", sub, e.Name())
		}
	}
}

func newTestProcessor(client catalog.Client, workdir string, opts Options, handlers ...*fakeHandler) *Processor {
	m := make(map[mediatypes.Kind]transcoder.Handler)
	for _, h := range handlers {
		m[h.kind] = h
	}
	opts.WorkDir = workdir
	if opts.ImageDistance == 0 {
		opts.ImageDistance = 1
	}
	if opts.ImageDistanceRetry == 0 {
		opts.ImageDistanceRetry = 2
	}
	return NewProcessor(client, m, opts)
}
