package profiles_test

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	prof "github.com/veloxq/veloxq-go/pkg/configs/profiles"
	"github.com/veloxq/veloxq-go/pkg/utils/try"
)

func dummyPEM() string {
	blk := &pem.Block{Type: "CERTIFICATE", Bytes: []byte("dummy certificate payload")}
	return base64.StdEncoding.EncodeToString(pem.EncodeToMemory(blk))
}

func TestProfileStore(t *testing.T) {
	t.Run("it parses a YAML store", func(t *testing.T) {
		store := try.To(prof.Parse([]byte(`
dev:
  apiRoot: https://api-dev.veloxq.example
  apiKey: dev-key
  cert:
    ca: CA_IN_BASE64
`))).OrFatal(t)

		p, ok := store["dev"]
		if !ok {
			t.Fatal("the profile named in the YAML is not in the store")
		}

		want := prof.Profile{
			ApiRoot: "https://api-dev.veloxq.example",
			ApiKey:  "dev-key",
			Cert:    prof.Cert{CA: "CA_IN_BASE64"},
		}
		if *p != want {
			t.Errorf("parsed profile unmatch. (actual, expected) = (%+v, %+v)", *p, want)
		}
	})

	t.Run("save and load round-trips the store", func(t *testing.T) {
		tempdir := t.TempDir()
		path := filepath.Join(tempdir, "veloxq", "profiles")

		store := prof.ProfileStore{
			"default": {
				ApiRoot: "https://api.veloxq.example",
				ApiKey:  "key-1",
			},
			"staging": {
				ApiRoot: "https://staging.veloxq.example",
				ApiKey:  "key-2",
				Cert:    prof.Cert{CA: dummyPEM()},
			},
		}

		if err := store.Save(path); err != nil {
			t.Fatalf("failed to save: %+v", err)
		}

		loaded := try.To(prof.LoadProfileStore(path)).OrFatal(t)
		if len(loaded) != len(store) {
			t.Fatalf("loaded store size unmatch. (actual, expected) = (%d, %d)", len(loaded), len(store))
		}
		for name, expected := range store {
			actual, ok := loaded[name]
			if !ok {
				t.Errorf("profile %s is lost", name)
				continue
			}
			if *actual != *expected {
				t.Errorf("profile %s unmatch. (actual, expected) = (%+v, %+v)", name, actual, expected)
			}
		}

		if runtime.GOOS != "windows" {
			stat := try.To(os.Stat(path)).OrFatal(t)
			if mode := stat.Mode().Perm(); mode != os.FileMode(0600) {
				t.Errorf("store file is not 0600: %v", mode)
			}
		}

		if _, err := os.Stat(path + ".backup"); !os.IsNotExist(err) {
			t.Errorf("backup file is left behind: %v", err)
		}
	})

	t.Run("loading a missing store reports ErrProfileStoreNotFound", func(t *testing.T) {
		_, err := prof.LoadProfileStore(filepath.Join(t.TempDir(), "no", "such", "file"))
		if !errors.Is(err, prof.ErrProfileStoreNotFound) {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}

func TestProfile(t *testing.T) {
	t.Run("it verifies profiles", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			prof *prof.Profile
			want error
		}{
			"a full profile passes": {
				prof: &prof.Profile{
					ApiRoot: "https://api.veloxq.example",
					ApiKey:  "test-api-key",
					Cert:    prof.Cert{CA: dummyPEM()},
				},
				want: nil,
			},
			"the CA cert is optional": {
				prof: &prof.Profile{
					ApiRoot: "https://api.veloxq.example",
					ApiKey:  "test-api-key",
				},
				want: nil,
			},
			"an empty apiRoot passes, falling back to the default": {
				prof: &prof.Profile{
					ApiKey: "test-api-key",
				},
				want: nil,
			},
			"an apiRoot without a scheme is rejected": {
				prof: &prof.Profile{
					ApiRoot: "veloxq.example/api",
					ApiKey:  "test-api-key",
				},
				want: prof.ErrProfileInvalid,
			},
			"a missing apiKey is rejected": {
				prof: &prof.Profile{
					ApiRoot: "https://api.veloxq.example",
				},
				want: prof.ErrProfileInvalid,
			},
			"a CA cert that does not hold PEM is rejected": {
				prof: &prof.Profile{
					ApiRoot: "https://api.veloxq.example",
					ApiKey:  "test-api-key",
					Cert: prof.Cert{
						CA: base64.StdEncoding.EncodeToString([]byte("no pem here")),
					},
				},
				want: prof.ErrProfileInvalid,
			},
		} {
			t.Run(name, func(t *testing.T) {
				if got := testcase.prof.Verify(); !errors.Is(got, testcase.want) {
					t.Errorf("Verify() = %v, want %v (profile: %+v)", got, testcase.want, testcase.prof)
				}
			})
		}
	})

	t.Run("verified empty apiRoot is replaced with the default", func(t *testing.T) {
		p := &prof.Profile{ApiKey: "test-api-key"}
		if err := p.Verify(); err != nil {
			t.Fatalf("verify failed: %+v", err)
		}
		if p.ApiRoot != prof.DefaultApiRoot {
			t.Errorf("apiRoot unmatch. (actual, expected) = (%s, %s)", p.ApiRoot, prof.DefaultApiRoot)
		}
	})
}

func TestWatch(t *testing.T) {
	t.Run("the returned context expires on rewrite, and reload sees the new content", func(t *testing.T) {
		ctx := context.Background()
		if deadline, ok := t.Deadline(); ok {
			_ctx, cancel := context.WithDeadline(ctx, deadline.Add(-100*time.Millisecond))
			defer cancel()
			ctx = _ctx
		}

		path := filepath.Join(t.TempDir(), "profiles")
		first := prof.ProfileStore{
			"default": {ApiRoot: "https://api.veloxq.example", ApiKey: "old-key"},
		}
		if err := first.Save(path); err != nil {
			t.Fatalf("failed to save: %+v", err)
		}

		store, wctx, stop, err := prof.Watch(ctx, path)
		if err != nil {
			t.Fatalf("failed to watch: %+v", err)
		}
		defer stop()

		if store["default"].ApiKey != "old-key" {
			t.Errorf("unexpected snapshot: %+v", store["default"])
		}

		second := prof.ProfileStore{
			"default": {ApiRoot: "https://api.veloxq.example", ApiKey: "new-key"},
		}
		if err := second.Save(path); err != nil {
			t.Fatalf("failed to save: %+v", err)
		}

		select {
		case <-wctx.Done():
		case <-ctx.Done():
			t.Fatal("watch context is not cancelled by rewriting the store")
		}

		reloaded := try.To(prof.LoadProfileStore(path)).OrFatal(t)
		if reloaded["default"].ApiKey != "new-key" {
			t.Errorf("reloaded snapshot is stale: %+v", reloaded["default"])
		}
	})

	t.Run("watching a missing store fails upfront", func(t *testing.T) {
		_, _, _, err := prof.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, prof.ErrProfileStoreNotFound) {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
