package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/designdesk/internal/errors"
	"github.com/openclaw/designdesk/internal/model"
)

type fileClientRepo struct {
	mu                sync.Mutex
	path              string
	unlimitedSentinel int
}

// NewFileClientRepository stores the aggregate as an indented JSON document at path.
func NewFileClientRepository(path string, unlimitedSentinel int) ClientRepository {
	return &fileClientRepo{path: path, unlimitedSentinel: unlimitedSentinel}
}

func (r *fileClientRepo) Load(ctx context.Context) (*model.ConfigRoot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *fileClientRepo) Save(ctx context.Context, root *model.ConfigRoot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(root)
}

func (r *fileClientRepo) Update(ctx context.Context, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	root, err := r.read()
	if err != nil {
		return err
	}
	if err := fn(root); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	return r.write(root)
}

func (r *fileClientRepo) read() (*model.ConfigRoot, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.ConfigIntegrity(fmt.Sprintf("client config %s does not exist", r.path), err)
	}
	if err != nil {
		return nil, apperrors.ConfigIntegrity(fmt.Sprintf("read client config %s", r.path), err)
	}

	root, err := decodeConfigRoot(data)
	if err != nil {
		return nil, err
	}
	if err := root.Validate(r.unlimitedSentinel); err != nil {
		return nil, err
	}
	return root, nil
}

// write replaces the file through a temp file + rename so readers never see
// a partial document.
func (r *fileClientRepo) write(root *model.ConfigRoot) error {
	if err := root.Validate(r.unlimitedSentinel); err != nil {
		return err
	}

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "encode client config", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "create temp client config", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn().Err(rmErr).Str("path", tmpName).Msg("failed to remove temp client config")
		}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return apperrors.Wrap(apperrors.ErrCodeInternal, "write client config", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return apperrors.Wrap(apperrors.ErrCodeInternal, "sync client config", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return apperrors.Wrap(apperrors.ErrCodeInternal, "close client config", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return apperrors.Wrap(apperrors.ErrCodeInternal, "chmod client config", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return apperrors.Wrap(apperrors.ErrCodeInternal, "replace client config", err)
	}
	return nil
}

type configDocument struct {
	Clients map[string]json.RawMessage `json:"clients"`
	Period  string                     `json:"period"`
}

// decodeConfigRoot parses each record field by field so a bad value is
// reported against its role and field instead of coerced.
func decodeConfigRoot(data []byte) (*model.ConfigRoot, error) {
	var doc configDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.ConfigIntegrity("client config is not valid JSON", err)
	}
	if doc.Clients == nil {
		return nil, apperrors.ConfigIntegrity(`client config has no "clients" object`, nil)
	}

	root := &model.ConfigRoot{
		Clients: make(map[string]*model.ClientRecord, len(doc.Clients)),
		Period:  doc.Period,
	}
	for roleID, raw := range doc.Clients {
		rec, err := decodeClientRecord(roleID, raw)
		if err != nil {
			return nil, err
		}
		root.Clients[roleID] = rec
	}
	return root, nil
}

func decodeClientRecord(roleID string, raw json.RawMessage) (*model.ClientRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, apperrors.InvalidClientField(roleID, "record", "must be an object")
	}

	var rec model.ClientRecord
	if err := decodeField(roleID, fields, "name", &rec.Name, true); err != nil {
		return nil, err
	}
	if err := decodeField(roleID, fields, "monthlyQuota", &rec.MonthlyQuota, true); err != nil {
		return nil, err
	}
	// used may be omitted on a freshly added client.
	if err := decodeField(roleID, fields, "used", &rec.Used, false); err != nil {
		return nil, err
	}
	return &rec, nil
}

func decodeField(roleID string, fields map[string]json.RawMessage, name string, dst any, required bool) error {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		if required {
			return apperrors.InvalidClientField(roleID, name, "is required")
		}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.InvalidClientField(roleID, name, "has the wrong type").WithCause(err)
	}
	return nil
}
