// Package profiles stores named VeloxQ connection profiles on disk.
//
// The store is a single YAML file mapping profile names to endpoints
// and API keys. Since it holds credentials, Save keeps the file at
// permission 0600 and rewrites it through a backup, so an interrupted
// rewrite leaves the previous content recoverable.
package profiles

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hectane/go-acl"
	"github.com/veloxq/veloxq-go/pkg/configs/open"
	"github.com/veloxq/veloxq-go/pkg/utils/filewatch"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrCannotCreateStore = errors.New("cannot create profile store")
var ErrCannotUpdateStore = errors.New("cannot update profile store")
var ErrProfileInvalid = errors.New("veloxq profile is invalid")

// DefaultApiRoot is the endpoint used when a profile leaves ApiRoot empty.
const DefaultApiRoot = "https://api-dev.veloxq.com"

// StorePathEnv overrides the default profile store location when set.
const StorePathEnv = "VELOXQ_PROFILE_STORE"

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

type Cert struct {
	// CA is the server's CA certificate: base64 over PEM.
	CA string `yaml:"ca,omitempty"`
}

// Profile selects a VeloxQ API endpoint and the key to authenticate with.
type Profile struct {
	// endpoint of the VeloxQ API
	ApiRoot string `yaml:"apiRoot"`

	// key sent as x-veloxq-auth-key on each request
	ApiKey string `yaml:"apiKey"`

	// Cert pins the certificate of the VeloxQ API server.
	Cert Cert `yaml:"cert,omitempty"`
}

// Verify checks that the profile can reach a server: an absolute
// apiRoot (an empty one is filled with DefaultApiRoot first), a
// non-empty apiKey, and a decodable CA certificate when one is pinned.
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if p.ApiRoot == "" {
		p.ApiRoot = DefaultApiRoot
	}
	if u, err := url.Parse(p.ApiRoot); err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: apiRoot is not an absolute URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.ApiKey == "" {
		return fmt.Errorf("%w: apiKey is required", ErrProfileInvalid)
	}
	if p.Cert.CA != "" && !decodesAsPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca does not decode as PEM", ErrProfileInvalid)
	}

	return nil
}

func decodesAsPEM(b64 string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// StorePath returns where the profile store lives: the value of
// VELOXQ_PROFILE_STORE when set, ~/.veloxq/profiles otherwise.
func StorePath() (string, error) {
	if p := os.Getenv(StorePathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".veloxq", "profiles"), nil
}

// LoadProfileStore reads the profile store at path.
func LoadProfileStore(path string) (ProfileStore, error) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

// Parse decodes a profile store from YAML.
func Parse(buf []byte) (ProfileStore, error) {
	store := ProfileStore{}
	if err := yaml.Unmarshal(buf, &store); err != nil {
		return nil, err
	}
	return store, nil
}

// Watch loads the profile store at path and pairs it with a context
// which is cancelled as soon as the file is rewritten, so callers know
// the returned snapshot has gone stale and can load a fresh one.
//
// # Returns
//
// - ProfileStore: snapshot of the store at path.
//
// - context.Context: cancelled when the file at path is modified.
//
// - func(): stops watching. Call it when the snapshot is no longer needed.
//
// - error
func Watch(ctx context.Context, path string) (ProfileStore, context.Context, func(), error) {
	store, err := LoadProfileStore(path)
	if err != nil {
		return nil, nil, nil, err
	}

	wctx, stop, err := filewatch.UntilModifyContext(ctx, path)
	if err != nil {
		return nil, nil, nil, err
	}

	return store, wctx, stop, nil
}

// Save writes the store to path as YAML.
//
// The file is kept at permission 0600, tightening it when an existing
// one is looser. The previous content is copied to path+".backup"
// before rewriting; the backup is removed once the new content is
// fully written, and left in place when the rewrite fails.
func (ps ProfileStore) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}

	f, err := openStore(path)
	if err != nil {
		return err
	}
	defer f.Close()

	backup := path + ".backup"
	if err := copyAside(f, backup); err != nil {
		os.Remove(backup)
		return err
	}

	if err := rewrite(f, ps); err != nil {
		return err
	}

	os.Remove(backup)
	return nil
}

// openStore opens the store file for rewriting, creating it with
// permission 0600 when missing.
func openStore(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, os.FileMode(0600))
	switch {
	case err == nil:
		// an existing file may be looser than 0600. Tighten it.
		if err := acl.Chmod(path, os.FileMode(0600)); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	case os.IsNotExist(err):
		f, err := open.NewSafeFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot create the store at %s", ErrCannotCreateStore, path)
		}
		return f, nil
	case os.IsPermission(err):
		return nil, fmt.Errorf("%w: no permission to write at %s", ErrCannotUpdateStore, path)
	default:
		return nil, err
	}
}

// copyAside snapshots the current content of f into a fresh file at
// backup.
func copyAside(f *os.File, backup string) error {
	bk, err := open.NewSafeFile(backup)
	if err != nil {
		return err
	}
	defer bk.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = io.Copy(bk, f)
	return err
}

// rewrite replaces the content of f. Marshalling happens before the
// file is touched, so a store that fails to marshal leaves it intact.
func rewrite(f *os.File, ps ProfileStore) error {
	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err = f.Write(buf)
	return err
}
